package db

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedData is the reference data and starter notes written on first run.
type SeedData struct {
	Colors []ColorRecord `yaml:"colors"`
	Tags   []TagRecord   `yaml:"tags"`
	Notes  []NoteRecord  `yaml:"notes"`
}

// DefaultSeed parses the embedded seed file.
func DefaultSeed() (*SeedData, error) {
	var s SeedData
	if err := yaml.Unmarshal(seedYAML, &s); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &s, nil
}

// seed writes the default data unless tags already exist.
func (d *DB) seed(ctx context.Context) error {
	var count int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count tags: %w", err)
	}
	if count > 0 {
		return nil
	}

	s, err := DefaultSeed()
	if err != nil {
		return err
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range s.Colors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO colors (id, name, hex) VALUES (?, ?, ?)`, c.ID, c.Name, c.Hex); err != nil {
			return fmt.Errorf("failed to seed color %d: %w", c.ID, err)
		}
	}
	for _, t := range s.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, t.ID, t.Name); err != nil {
			return fmt.Errorf("failed to seed tag %d: %w", t.ID, err)
		}
	}
	for _, n := range s.Notes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notes (id, name, phone_number, can_be_checked_off, is_checked_off, color_id, tag_id, in_trash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Name, n.PhoneNumber, n.CanBeCheckedOff, n.IsCheckedOff, n.ColorID, n.TagID, n.InTrash)
		if err != nil {
			return fmt.Errorf("failed to seed note %d: %w", n.ID, err)
		}
	}

	return tx.Commit()
}
