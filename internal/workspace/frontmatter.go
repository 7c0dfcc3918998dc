package workspace

import (
	"fmt"
	"strings"
)

// splitFrontmatter separates a markdown document into its YAML
// frontmatter (between leading "---" fences) and body.
func splitFrontmatter(content string) (yamlPart, body string, err error) {
	trimmed := strings.TrimLeft(content, "\n\r\t ")
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", fmt.Errorf("missing frontmatter fence")
	}
	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated frontmatter fence")
	}
	yamlPart = rest[:end]
	body = strings.TrimLeft(rest[end+4:], "\n")
	return yamlPart, body, nil
}
