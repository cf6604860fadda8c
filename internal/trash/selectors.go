package trash

import (
	"fmt"

	"phonebook/internal/models"
)

// UnsupportedSelectorError is returned when a tab or dialog index falls
// outside its enumeration.
type UnsupportedSelectorError struct {
	Selector string
	Value    int
}

func (e *UnsupportedSelectorError) Error() string {
	return fmt.Sprintf("%s not supported - index: %d", e.Selector, e.Value)
}

// Tab selects one half of the trash view.
type Tab int

const (
	TabRegular Tab = iota
	TabCheckable
)

func (t Tab) String() string {
	switch t {
	case TabRegular:
		return "REGULAR"
	case TabCheckable:
		return "CHECKABLE"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

// Tabs lists the trash tabs in display order.
func Tabs() []Tab { return []Tab{TabRegular, TabCheckable} }

// FilterByTab returns the notes shown on the given tab.
func FilterByTab(notes []models.Note, tab Tab) ([]models.Note, error) {
	regular, checkable := Partition(notes)
	switch tab {
	case TabRegular:
		return regular, nil
	case TabCheckable:
		return checkable, nil
	default:
		return nil, &UnsupportedSelectorError{Selector: "Tab", Value: int(tab)}
	}
}

// Dialog is the confirmation prompt shown before a bulk trash action.
type Dialog int

const (
	DialogNone Dialog = iota + 1
	DialogRestore
	DialogPermanentlyDelete
)

func (d Dialog) Title() (string, error) {
	switch d {
	case DialogRestore:
		return "Restore Contacts", nil
	case DialogPermanentlyDelete:
		return "Delete Contacts forever", nil
	default:
		return "", &UnsupportedSelectorError{Selector: "Dialog", Value: int(d)}
	}
}

func (d Dialog) Text() (string, error) {
	switch d {
	case DialogRestore:
		return "Are you sure you want to restore selected contacts?", nil
	case DialogPermanentlyDelete:
		return "Are you sure you want to delete selected contacts permanently?", nil
	default:
		return "", &UnsupportedSelectorError{Selector: "Dialog", Value: int(d)}
	}
}

// Target is the state a confirmed dialog moves the selected notes to.
func (d Dialog) Target() (models.TrashState, error) {
	switch d {
	case DialogRestore:
		return models.Active, nil
	case DialogPermanentlyDelete:
		return models.Destroyed, nil
	default:
		return 0, &UnsupportedSelectorError{Selector: "Dialog", Value: int(d)}
	}
}
