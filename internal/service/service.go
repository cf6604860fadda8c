// Package service implements the note operations behind the Notes, Tags and
// Trash screens on top of the store, the mapper and the trash rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"phonebook/internal/cache"
	"phonebook/internal/db"
	"phonebook/internal/logger"
	"phonebook/internal/mapper"
	"phonebook/internal/models"
	"phonebook/internal/trash"
)

var (
	ErrInvalidNote   = errors.New("invalid note")
	ErrNotCheckable  = errors.New("note cannot be checked off")
	ErrNoteNotActive = errors.New("note is not active")
	ErrNotInTrash    = errors.New("note is not in the trash")
)

type Service struct {
	db       *db.DB
	cache    *cache.Cache
	selected *trash.Selection
	log      zerolog.Logger
}

func New(database *db.DB, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		db:       database,
		cache:    c,
		selected: trash.NewSelection(),
		log:      logger.Component(log, "service"),
	}
}

// references returns the complete color and tag tables the mapper needs.
func (s *Service) references(ctx context.Context) (map[int64]db.ColorRecord, map[int64]db.TagRecord, error) {
	colors, ok := s.cache.Colors()
	if !ok {
		recs, err := s.db.GetColors(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load colors: %w", err)
		}
		colors = mapper.ColorsByID(recs)
		s.cache.SetColors(colors)
	}

	tags, ok := s.cache.Tags()
	if !ok {
		recs, err := s.db.GetTags(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tags: %w", err)
		}
		tags = mapper.TagsByID(recs)
		s.cache.SetTags(tags)
	}

	return colors, tags, nil
}

func (s *Service) notes(ctx context.Context, inTrash bool) ([]models.Note, error) {
	recs, err := s.db.GetNotes(ctx, inTrash)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	colors, tags, err := s.references(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := mapper.MapNotes(recs, colors, tags)
	if err != nil {
		s.log.Error().Err(err).Bool("in_trash", inTrash).Msg("incomplete reference data")
		return nil, err
	}
	return notes, nil
}

// NotesNotInTrash returns the active notes in store order.
func (s *Service) NotesNotInTrash(ctx context.Context) ([]models.Note, error) {
	return s.notes(ctx, false)
}

// NotesInTrash returns the trashed notes in store order.
func (s *Service) NotesInTrash(ctx context.Context) ([]models.Note, error) {
	return s.notes(ctx, true)
}

// Note returns a single note regardless of its trash state.
func (s *Service) Note(ctx context.Context, id int64) (models.Note, error) {
	if note, ok := s.cache.Get(cache.NoteKey(id)); ok {
		return *note, nil
	}

	rec, err := s.db.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	note, err := s.mapOne(ctx, *rec)
	if err != nil {
		return models.Note{}, err
	}
	s.cache.Set(cache.NoteKey(id), &note)
	return note, nil
}

func (s *Service) mapOne(ctx context.Context, rec db.NoteRecord) (models.Note, error) {
	colors, tags, err := s.references(ctx)
	if err != nil {
		return models.Note{}, err
	}
	notes, err := mapper.MapNotes([]db.NoteRecord{rec}, colors, tags)
	if err != nil {
		s.log.Error().Err(err).Int64("note_id", rec.ID).Msg("incomplete reference data")
		return models.Note{}, err
	}
	return notes[0], nil
}

func (s *Service) Colors(ctx context.Context) ([]models.Color, error) {
	recs, err := s.db.GetColors(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.MapColors(recs), nil
}

func (s *Service) Color(ctx context.Context, id int64) (models.Color, error) {
	rec, err := s.db.GetColor(ctx, id)
	if err != nil {
		return models.Color{}, err
	}
	return mapper.MapColor(*rec), nil
}

func (s *Service) Tag(ctx context.Context, id int64) (models.Tag, error) {
	rec, err := s.db.GetTag(ctx, id)
	if err != nil {
		return models.Tag{}, err
	}
	return mapper.MapTag(*rec), nil
}

func (s *Service) Tags(ctx context.Context) ([]models.Tag, error) {
	recs, err := s.db.GetTags(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.MapTags(recs), nil
}

// NotesByTag groups the active notes under every tag, in tag order.
func (s *Service) NotesByTag(ctx context.Context) ([]models.TagGroup, error) {
	tags, err := s.Tags(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.NotesNotInTrash(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]models.TagGroup, 0, len(tags))
	index := make(map[int64]int, len(tags))
	for i, t := range tags {
		groups = append(groups, models.TagGroup{Tag: t, Notes: []models.Note{}})
		index[t.ID] = i
	}
	for _, n := range notes {
		if i, ok := index[n.Tag.ID]; ok {
			groups[i].Notes = append(groups[i].Notes, n)
		}
	}
	return groups, nil
}

// NotesWithTag returns the active notes whose tag name matches, ignoring case.
func (s *Service) NotesWithTag(ctx context.Context, tagName string) ([]models.Note, error) {
	notes, err := s.NotesNotInTrash(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if strings.EqualFold(n.Tag.Name, tagName) {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// TrashTab returns the trashed notes shown on a trash tab.
func (s *Service) TrashTab(ctx context.Context, tab trash.Tab) ([]models.Note, error) {
	notes, err := s.NotesInTrash(ctx)
	if err != nil {
		return nil, err
	}
	return trash.FilterByTab(notes, tab)
}
