package db

// NoteRecord is a row of the notes table. Color and tag are stored as
// foreign keys. ID is zero until the row has been inserted.
type NoteRecord struct {
	ID              int64  `yaml:"id"`
	Name            string `yaml:"name"`
	PhoneNumber     string `yaml:"phone_number"`
	CanBeCheckedOff bool   `yaml:"can_be_checked_off"`
	IsCheckedOff    bool   `yaml:"is_checked_off"`
	ColorID         int64  `yaml:"color_id"`
	TagID           int64  `yaml:"tag_id"`
	InTrash         bool   `yaml:"in_trash"`
}

// HasID reports whether the record refers to an existing row.
func (r NoteRecord) HasID() bool { return r.ID != 0 }

type ColorRecord struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

type TagRecord struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}
