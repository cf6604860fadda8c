package models

import "time"

type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultColor and DefaultTag are what a freshly created note starts with.
// Both match the first rows of the seed data.
var (
	DefaultColor = Color{ID: 1, Name: "White", Hex: "#FFFFFF"}
	DefaultTag   = Tag{ID: 1, Name: "Mobile"}
)

type Note struct {
	ID          NoteID     `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	CheckedOff  CheckState `json:"is_checked_off"`
	Color       Color      `json:"color"`
	Tag         Tag        `json:"tag"`
}

// NewNote returns the blank note the "new note" action starts from.
func NewNote() Note {
	return Note{
		ID:         UnassignedID(),
		CheckedOff: NotApplicable,
		Color:      DefaultColor,
		Tag:        DefaultTag,
	}
}

// TagGroup is a tag together with the active notes carrying it.
type TagGroup struct {
	Tag   Tag    `json:"tag"`
	Notes []Note `json:"notes"`
}

type AuthToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Settings struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}
