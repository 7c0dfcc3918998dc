package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Plugin mirrors Claude Code's .claude-plugin/plugin.json manifest.
type Plugin struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Author identifies a plugin author.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// pluginSchema constrains the manifest shape: name and description are
// required, everything else optional.
const pluginSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "description"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 1},
		"version": {"type": "string"},
		"author": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"email": {"type": "string"}
			}
		},
		"license": {"type": "string"},
		"keywords": {"type": "array", "items": {"type": "string"}}
	}
}`

var compiledPluginSchema = mustCompilePluginSchema()

func mustCompilePluginSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(pluginSchema)))
	if err != nil {
		panic(fmt.Sprintf("unmarshal plugin schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("plugin-schema.json", doc); err != nil {
		panic(fmt.Sprintf("add plugin schema resource: %v", err))
	}
	schema, err := c.Compile("plugin-schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile plugin schema: %v", err))
	}
	return schema
}

// LoadPlugin reads and validates a plugin.json manifest.
func LoadPlugin(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin manifest: %w", err)
	}

	// jsonschema.UnmarshalJSON keeps numbers as json.Number, which the
	// validator requires.
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse plugin manifest: %w", err)
	}
	if err := compiledPluginSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid plugin manifest %s: %w", path, err)
	}

	var plugin Plugin
	if err := json.Unmarshal(data, &plugin); err != nil {
		return nil, fmt.Errorf("decode plugin manifest: %w", err)
	}
	return &plugin, nil
}
