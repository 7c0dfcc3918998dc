package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RegisterInstalledSkill records (or refreshes) install provenance for a
// skill id.
func (s *Store) RegisterInstalledSkill(ctx context.Context, skillID, source, sourceURL string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO installed_skills (skill_id, source, source_url)
		VALUES (?, ?, ?)
		ON CONFLICT(skill_id) DO UPDATE SET
			source = excluded.source,
			source_url = excluded.source_url,
			updated_at = CURRENT_TIMESTAMP;
	`, skillID, source, sourceURL)
	if err != nil {
		return fmt.Errorf("register installed skill: %w", err)
	}
	return nil
}

// RemoveInstalledSkill deletes a skill's provenance record. Removing an
// unknown id is not an error.
func (s *Store) RemoveInstalledSkill(ctx context.Context, skillID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM installed_skills WHERE skill_id = ?;`, skillID); err != nil {
		return fmt.Errorf("remove installed skill: %w", err)
	}
	return nil
}

// ListInstalledSkills returns all install records ordered by skill id.
func (s *Store) ListInstalledSkills(ctx context.Context) ([]InstalledSkillRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT skill_id, source, source_url, installed_at, updated_at
		FROM installed_skills ORDER BY skill_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list installed skills: %w", err)
	}
	defer rows.Close()

	var recs []InstalledSkillRecord
	for rows.Next() {
		var rec InstalledSkillRecord
		if err := rows.Scan(&rec.SkillID, &rec.Source, &rec.SourceURL, &rec.InstalledAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan installed skill: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// IsSkillInstalled reports whether a provenance record exists for the id.
func (s *Store) IsSkillInstalled(ctx context.Context, skillID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM installed_skills WHERE skill_id = ?;`, skillID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query installed skill: %w", err)
	}
	return true, nil
}
