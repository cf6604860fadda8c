package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NewNoteID is the legacy wire value clients send for a note that has not
// been stored yet. It is accepted on input and never produced.
const NewNoteID int64 = -1

// NoteID is either Unassigned (the note was never stored) or Assigned to a
// store identity.
type NoteID struct {
	value    int64
	assigned bool
}

func UnassignedID() NoteID { return NoteID{} }

func AssignedID(id int64) NoteID { return NoteID{value: id, assigned: true} }

func (id NoteID) IsAssigned() bool { return id.assigned }

// Value returns the store identity and whether there is one.
func (id NoteID) Value() (int64, bool) { return id.value, id.assigned }

func (id NoteID) String() string {
	if !id.assigned {
		return "unassigned"
	}
	return strconv.FormatInt(id.value, 10)
}

func (id NoteID) MarshalJSON() ([]byte, error) {
	if !id.assigned {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(id.value, 10)), nil
}

func (id *NoteID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = UnassignedID()
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid note id %s: %w", data, err)
	}
	if v == NewNoteID {
		*id = UnassignedID()
		return nil
	}
	if v <= 0 {
		return fmt.Errorf("invalid note id %d", v)
	}
	*id = AssignedID(v)
	return nil
}

// CheckState says whether a note can be checked off, and if so whether it is.
type CheckState int

const (
	NotApplicable CheckState = iota
	Unchecked
	Checked
)

// CheckStateOf rebuilds the state from the two stored booleans.
func CheckStateOf(canBeCheckedOff, isCheckedOff bool) CheckState {
	switch {
	case !canBeCheckedOff:
		return NotApplicable
	case isCheckedOff:
		return Checked
	default:
		return Unchecked
	}
}

func (s CheckState) Applicable() bool { return s != NotApplicable }

// Bool returns the checked value and whether checking off applies at all.
func (s CheckState) Bool() (checked, ok bool) {
	return s == Checked, s != NotApplicable
}

// Toggle flips Checked and Unchecked. NotApplicable stays as is.
func (s CheckState) Toggle() CheckState {
	switch s {
	case Checked:
		return Unchecked
	case Unchecked:
		return Checked
	default:
		return s
	}
}

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Unchecked:
		return "unchecked"
	default:
		return "not_applicable"
	}
}

func (s CheckState) MarshalJSON() ([]byte, error) {
	switch s {
	case Checked:
		return []byte("true"), nil
	case Unchecked:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (s *CheckState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		*s = NotApplicable
	case "true":
		*s = Checked
	case "false":
		*s = Unchecked
	default:
		return fmt.Errorf("invalid check state %s", data)
	}
	return nil
}

// TrashState is where a note sits in the trash lifecycle.
type TrashState int

const (
	Active TrashState = iota
	Trashed
	Destroyed
)

func (s TrashState) String() string {
	switch s {
	case Active:
		return "active"
	case Trashed:
		return "trashed"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("TrashState(%d)", int(s))
	}
}
