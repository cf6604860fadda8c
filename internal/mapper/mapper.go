// Package mapper converts between database records and domain models.
package mapper

import (
	"fmt"

	"phonebook/internal/db"
	"phonebook/internal/models"
)

// MissingReferenceError means a note points at a color or tag that was not in
// the lookup maps. Callers must pass complete reference tables, so this is a
// contract violation rather than a condition to retry.
type MissingReferenceError struct {
	Kind string // "color" or "tag"
	ID   int64
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s for %sId: %d was not found, make sure all %ss are passed to the mapper", e.Kind, e.Kind, e.ID, e.Kind)
}

// MapNotes pairs every note record with its color and tag. It fails on the
// first note whose color or tag is missing and returns no partial result.
func MapNotes(notes []db.NoteRecord, colors map[int64]db.ColorRecord, tags map[int64]db.TagRecord) ([]models.Note, error) {
	result := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		color, ok := colors[n.ColorID]
		if !ok {
			return nil, &MissingReferenceError{Kind: "color", ID: n.ColorID}
		}
		tag, ok := tags[n.TagID]
		if !ok {
			return nil, &MissingReferenceError{Kind: "tag", ID: n.TagID}
		}
		result = append(result, MapNote(n, color, tag))
	}
	return result, nil
}

// MapNote converts a single record. The stored checked-off flag only counts
// when the note can be checked off at all.
func MapNote(n db.NoteRecord, color db.ColorRecord, tag db.TagRecord) models.Note {
	return models.Note{
		ID:          models.AssignedID(n.ID),
		Name:        n.Name,
		PhoneNumber: n.PhoneNumber,
		CheckedOff:  models.CheckStateOf(n.CanBeCheckedOff, n.IsCheckedOff),
		Color:       MapColor(color),
		Tag:         MapTag(tag),
	}
}

func MapColors(colors []db.ColorRecord) []models.Color {
	result := make([]models.Color, 0, len(colors))
	for _, c := range colors {
		result = append(result, MapColor(c))
	}
	return result
}

func MapColor(c db.ColorRecord) models.Color {
	return models.Color{ID: c.ID, Name: c.Name, Hex: c.Hex}
}

func MapTags(tags []db.TagRecord) []models.Tag {
	result := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		result = append(result, MapTag(t))
	}
	return result
}

func MapTag(t db.TagRecord) models.Tag {
	return models.Tag{ID: t.ID, Name: t.Name}
}

// MapDbNote converts a note back to a record for saving. An unassigned id
// produces a record without id, which the store inserts; an assigned id is
// carried through for an update. InTrash is always false: trash transitions
// never go through this path.
func MapDbNote(n models.Note) db.NoteRecord {
	checked, canBeCheckedOff := n.CheckedOff.Bool()
	rec := db.NoteRecord{
		Name:            n.Name,
		PhoneNumber:     n.PhoneNumber,
		CanBeCheckedOff: canBeCheckedOff,
		IsCheckedOff:    checked,
		ColorID:         n.Color.ID,
		TagID:           n.Tag.ID,
		InTrash:         false,
	}
	if id, ok := n.ID.Value(); ok {
		rec.ID = id
	}
	return rec
}

// ColorsByID indexes color records for MapNotes.
func ColorsByID(colors []db.ColorRecord) map[int64]db.ColorRecord {
	m := make(map[int64]db.ColorRecord, len(colors))
	for _, c := range colors {
		m[c.ID] = c
	}
	return m
}

// TagsByID indexes tag records for MapNotes.
func TagsByID(tags []db.TagRecord) map[int64]db.TagRecord {
	m := make(map[int64]db.TagRecord, len(tags))
	for _, t := range tags {
		m[t.ID] = t
	}
	return m
}
