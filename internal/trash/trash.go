// Package trash holds the rules for moving notes between the active list,
// the trash, and permanent deletion.
package trash

import (
	"fmt"

	"phonebook/internal/db"
	"phonebook/internal/models"
)

// TransitionError reports a lifecycle move that is not allowed, such as
// deleting an active note without trashing it first.
type TransitionError struct {
	From, To models.TrashState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move note from %s to %s", e.From, e.To)
}

// StateOf returns where a stored note sits. A nil record has been destroyed.
func StateOf(rec *db.NoteRecord) models.TrashState {
	switch {
	case rec == nil:
		return models.Destroyed
	case rec.InTrash:
		return models.Trashed
	default:
		return models.Active
	}
}

// CanTransition returns nil for the three allowed moves: Active to Trashed,
// Trashed to Active, and Trashed to Destroyed.
func CanTransition(from, to models.TrashState) error {
	switch {
	case from == models.Active && to == models.Trashed,
		from == models.Trashed && to == models.Active,
		from == models.Trashed && to == models.Destroyed:
		return nil
	default:
		return &TransitionError{From: from, To: to}
	}
}

// Partition splits notes into regular ones and ones that can be checked off,
// keeping the input order in both.
func Partition(notes []models.Note) (regular, checkable []models.Note) {
	regular = make([]models.Note, 0, len(notes))
	checkable = make([]models.Note, 0)
	for _, n := range notes {
		if n.CheckedOff.Applicable() {
			checkable = append(checkable, n)
		} else {
			regular = append(regular, n)
		}
	}
	return regular, checkable
}
