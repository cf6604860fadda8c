package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/internal/db"
	"phonebook/internal/models"
)

func TestCache_Notes(t *testing.T) {
	c := New(time.Minute)
	note := &models.Note{ID: models.AssignedID(3), Name: "KnaB"}

	c.Set(NoteKey(3), note)
	got, ok := c.Get(NoteKey(3))
	require.True(t, ok)
	assert.Same(t, note, got)

	c.Invalidate(NoteKey(3))
	_, ok = c.Get(NoteKey(3))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set(NoteKey(1), &models.Note{})
	c.SetTags(map[int64]db.TagRecord{1: {ID: 1, Name: "Mobile"}})

	tags, ok := c.Tags()
	require.True(t, ok)
	assert.Equal(t, "Mobile", tags[1].Name)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(NoteKey(1))
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCache_ReferenceTables(t *testing.T) {
	c := New(0)

	_, ok := c.Colors()
	assert.False(t, ok)

	c.SetColors(map[int64]db.ColorRecord{1: {ID: 1, Name: "White", Hex: "#FFFFFF"}})
	colors, ok := c.Colors()
	require.True(t, ok)
	assert.Len(t, colors, 1)

	c.Invalidate(colorsKey)
	_, ok = c.Colors()
	assert.False(t, ok)
}
