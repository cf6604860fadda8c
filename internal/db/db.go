package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"phonebook/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrIDAssigned   = errors.New("note already has an id")
	ErrIDUnassigned = errors.New("note has no id")
	ErrInTrash      = errors.New("note is in the trash")
)

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ctx := context.Background()
	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if err := db.seed(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to seed: %w", err)
	}

	return db, nil
}

func (d *DB) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS colors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			hex TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			can_be_checked_off BOOLEAN NOT NULL DEFAULT FALSE,
			is_checked_off BOOLEAN NOT NULL DEFAULT FALSE,
			color_id INTEGER NOT NULL,
			tag_id INTEGER NOT NULL,
			in_trash BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (color_id) REFERENCES colors(id),
			FOREIGN KEY (tag_id) REFERENCES tags(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_in_trash ON notes(in_trash)`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL UNIQUE,
			used BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			theme TEXT NOT NULL DEFAULT 'light',
			language TEXT NOT NULL DEFAULT 'en'
		)`,
	}

	for _, q := range queries {
		if _, err := d.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Colors
func (d *DB) GetColors(ctx context.Context) ([]ColorRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, name, hex FROM colors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var colors []ColorRecord
	for rows.Next() {
		var c ColorRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Hex); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

func (d *DB) GetColor(ctx context.Context, id int64) (*ColorRecord, error) {
	var c ColorRecord
	err := d.conn.QueryRowContext(ctx, `SELECT id, name, hex FROM colors WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Hex)
	if err != nil {
		return nil, notFound(err, "color", id)
	}
	return &c, nil
}

// Tags
func (d *DB) GetTags(ctx context.Context) ([]TagRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []TagRecord
	for rows.Next() {
		var t TagRecord
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (d *DB) GetTag(ctx context.Context, id int64) (*TagRecord, error) {
	var t TagRecord
	err := d.conn.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, notFound(err, "tag", id)
	}
	return &t, nil
}

// Notes
const noteColumns = `id, name, phone_number, can_be_checked_off, is_checked_off, color_id, tag_id, in_trash`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (NoteRecord, error) {
	var n NoteRecord
	err := s.Scan(&n.ID, &n.Name, &n.PhoneNumber, &n.CanBeCheckedOff, &n.IsCheckedOff, &n.ColorID, &n.TagID, &n.InTrash)
	return n, err
}

// GetNotes returns notes in or out of the trash, in insertion order.
func (d *DB) GetNotes(ctx context.Context, inTrash bool) ([]NoteRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE in_trash = ? ORDER BY id`, inTrash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []NoteRecord
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (d *DB) GetNote(ctx context.Context, id int64) (*NoteRecord, error) {
	n, err := scanNote(d.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "note", id)
	}
	return &n, nil
}

// InsertNote stores a new note and returns it with the id the store assigned.
func (d *DB) InsertNote(ctx context.Context, n NoteRecord) (*NoteRecord, error) {
	if n.HasID() {
		return nil, ErrIDAssigned
	}
	result, err := d.conn.ExecContext(ctx,
		`INSERT INTO notes (name, phone_number, can_be_checked_off, is_checked_off, color_id, tag_id, in_trash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Name, n.PhoneNumber, n.CanBeCheckedOff, n.IsCheckedOff, n.ColorID, n.TagID, n.InTrash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return d.GetNote(ctx, id)
}

// UpdateNote overwrites the editable fields of an active note. The trash
// flag is left alone; use SetInTrash for that. A trashed note is not
// touched and yields ErrInTrash.
func (d *DB) UpdateNote(ctx context.Context, n NoteRecord) (*NoteRecord, error) {
	if !n.HasID() {
		return nil, ErrIDUnassigned
	}
	result, err := d.conn.ExecContext(ctx,
		`UPDATE notes SET name = ?, phone_number = ?, can_be_checked_off = ?, is_checked_off = ?, color_id = ?, tag_id = ?
		WHERE id = ? AND in_trash = FALSE`,
		n.Name, n.PhoneNumber, n.CanBeCheckedOff, n.IsCheckedOff, n.ColorID, n.TagID, n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update note %d: %w", n.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := d.GetNote(ctx, n.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("note %d: %w", n.ID, ErrInTrash)
	}
	return d.GetNote(ctx, n.ID)
}

// SetInTrash moves each note whose trash flag differs from inTrash and
// returns the ids that actually changed. Ids already in the target state or
// missing are skipped.
func (d *DB) SetInTrash(ctx context.Context, ids []int64, inTrash bool) ([]int64, error) {
	return d.eachInTx(ctx, ids,
		`UPDATE notes SET in_trash = ? WHERE id = ? AND in_trash = ?`,
		func(id int64) []any { return []any{inTrash, id, !inTrash} })
}

// DeleteNotes removes trashed notes for good. Notes that are not in the
// trash are skipped.
func (d *DB) DeleteNotes(ctx context.Context, ids []int64) ([]int64, error) {
	return d.eachInTx(ctx, ids,
		`DELETE FROM notes WHERE id = ? AND in_trash = TRUE`,
		func(id int64) []any { return []any{id} })
}

func (d *DB) eachInTx(ctx context.Context, ids []int64, query string, args func(int64) []any) ([]int64, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	changed := make([]int64, 0, len(ids))
	for _, id := range ids {
		result, err := stmt.ExecContext(ctx, args(id)...)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected > 0 {
			changed = append(changed, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return changed, nil
}

// Auth Tokens
func (d *DB) CreateAuthToken(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := d.conn.ExecContext(ctx, `INSERT INTO auth_tokens (token, expires_at) VALUES (?, ?)`, token, expiresAt)
	return err
}

func (d *DB) GetAuthToken(ctx context.Context, token string) (*models.AuthToken, error) {
	var t models.AuthToken
	err := d.conn.QueryRowContext(ctx, `SELECT id, token, used, created_at, expires_at FROM auth_tokens WHERE token = ?`, token).
		Scan(&t.ID, &t.Token, &t.Used, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auth token: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *DB) MarkTokenUsed(ctx context.Context, token string) error {
	_, err := d.conn.ExecContext(ctx, `UPDATE auth_tokens SET used = TRUE WHERE token = ?`, token)
	return err
}

// Settings
func (d *DB) GetSettings(ctx context.Context) (*models.Settings, error) {
	s := models.Settings{Theme: "light", Language: "en"}
	err := d.conn.QueryRowContext(ctx, `SELECT theme, language FROM settings WHERE id = 1`).Scan(&s.Theme, &s.Language)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &s, nil
}

func (d *DB) SaveSettings(ctx context.Context, s models.Settings) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO settings (id, theme, language) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET theme = excluded.theme, language = excluded.language`,
		s.Theme, s.Language)
	return err
}

func notFound(err error, kind string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return err
}
