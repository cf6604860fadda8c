package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"phonebook/internal/cache"
	"phonebook/internal/db"
	"phonebook/internal/mapper"
	"phonebook/internal/models"
	"phonebook/internal/trash"
)

// SaveNote creates the note when its id is unassigned and updates it
// otherwise. Only active notes can be edited.
func (s *Service) SaveNote(ctx context.Context, note models.Note) (models.Note, error) {
	note.Name = strings.TrimSpace(note.Name)
	if note.Name == "" {
		return models.Note{}, fmt.Errorf("%w: name is required", ErrInvalidNote)
	}

	colors, tags, err := s.references(ctx)
	if err != nil {
		return models.Note{}, err
	}
	if _, ok := colors[note.Color.ID]; !ok {
		return models.Note{}, fmt.Errorf("%w: unknown color %d", ErrInvalidNote, note.Color.ID)
	}
	if _, ok := tags[note.Tag.ID]; !ok {
		return models.Note{}, fmt.Errorf("%w: unknown tag %d", ErrInvalidNote, note.Tag.ID)
	}

	rec := mapper.MapDbNote(note)

	var saved *db.NoteRecord
	if rec.HasID() {
		saved, err = s.db.UpdateNote(ctx, rec)
		if errors.Is(err, db.ErrInTrash) {
			return models.Note{}, fmt.Errorf("note %d: %w", rec.ID, ErrNoteNotActive)
		}
		if err != nil {
			return models.Note{}, err
		}
		s.cache.Invalidate(cache.NoteKey(rec.ID))
	} else {
		saved, err = s.db.InsertNote(ctx, rec)
		if err != nil {
			return models.Note{}, err
		}
	}

	s.log.Info().Int64("note_id", saved.ID).Bool("created", !rec.HasID()).Msg("note saved")
	return s.mapOne(ctx, *saved)
}

// ToggleCheckedOff flips the checked state of a checkable note.
func (s *Service) ToggleCheckedOff(ctx context.Context, id int64) (models.Note, error) {
	note, err := s.Note(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if !note.CheckedOff.Applicable() {
		return models.Note{}, fmt.Errorf("note %d: %w", id, ErrNotCheckable)
	}
	note.CheckedOff = note.CheckedOff.Toggle()
	return s.SaveNote(ctx, note)
}

// MoveToTrash moves an active note to the trash.
func (s *Service) MoveToTrash(ctx context.Context, id int64) error {
	changed, err := s.db.SetInTrash(ctx, []int64{id}, true)
	if err != nil {
		return fmt.Errorf("failed to trash note %d: %w", id, err)
	}
	if len(changed) == 0 {
		return s.rejectTransition(ctx, id, models.Trashed)
	}
	s.cache.Invalidate(cache.NoteKey(id))
	s.log.Info().Int64("note_id", id).Msg("note moved to trash")
	return nil
}

// RestoreNotes moves the given trashed notes back to the active list. Each id
// is handled on its own; ids that are not in the trash are skipped. It
// returns the ids that were restored.
func (s *Service) RestoreNotes(ctx context.Context, ids []int64) ([]int64, error) {
	restored, err := s.db.SetInTrash(ctx, ids, false)
	if err != nil {
		return nil, fmt.Errorf("failed to restore notes: %w", err)
	}
	s.invalidate(restored)
	s.log.Info().Ints64("requested", ids).Ints64("restored", restored).Msg("notes restored")
	return restored, nil
}

// PermanentlyDeleteNotes removes the given trashed notes for good. Active
// notes are skipped. It returns the ids that were deleted.
func (s *Service) PermanentlyDeleteNotes(ctx context.Context, ids []int64) ([]int64, error) {
	deleted, err := s.db.DeleteNotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to delete notes: %w", err)
	}
	s.invalidate(deleted)
	s.log.Info().Ints64("requested", ids).Ints64("deleted", deleted).Msg("notes permanently deleted")
	return deleted, nil
}

// ConfirmDialog applies the action behind a confirmed trash dialog to the
// selected notes.
func (s *Service) ConfirmDialog(ctx context.Context, dialog trash.Dialog, ids []int64) ([]int64, error) {
	target, err := dialog.Target()
	if err != nil {
		s.log.Error().Err(err).Msg("unsupported dialog")
		return nil, err
	}
	if target == models.Active {
		return s.RestoreNotes(ctx, ids)
	}
	return s.PermanentlyDeleteNotes(ctx, ids)
}

// SelectNote toggles a trashed note in the trash selection and reports
// whether it is selected afterwards.
// A selected id can always be deselected, even after the note is gone.
func (s *Service) SelectNote(ctx context.Context, id int64) (bool, error) {
	if s.selected.Contains(id) {
		return s.selected.Toggle(id), nil
	}
	rec, err := s.db.GetNote(ctx, id)
	if err != nil {
		return false, err
	}
	if state := trash.StateOf(rec); state != models.Trashed {
		return false, fmt.Errorf("note %d is %s: %w", id, state, ErrNotInTrash)
	}
	return s.selected.Toggle(id), nil
}

// SelectedNotes returns the ids currently selected in the trash.
func (s *Service) SelectedNotes() []int64 {
	return s.selected.IDs()
}

// ConfirmSelection applies a trash dialog to the current selection and
// clears it.
func (s *Service) ConfirmSelection(ctx context.Context, dialog trash.Dialog) ([]int64, error) {
	changed, err := s.ConfirmDialog(ctx, dialog, s.selected.IDs())
	if err != nil {
		return nil, err
	}
	s.selected.Clear()
	return changed, nil
}

func (s *Service) rejectTransition(ctx context.Context, id int64, to models.TrashState) error {
	rec, err := s.db.GetNote(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	from := trash.StateOf(rec)
	if err := trash.CanTransition(from, to); err != nil {
		return fmt.Errorf("note %d: %w", id, err)
	}
	return fmt.Errorf("note %d: concurrent change while moving to %s", id, to)
}

func (s *Service) invalidate(ids []int64) {
	for _, id := range ids {
		s.cache.Invalidate(cache.NoteKey(id))
	}
}
