package cache

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"phonebook/internal/db"
	"phonebook/internal/models"
)

const (
	DefaultTTL = 10 * time.Minute

	colorsKey = "ref:colors"
	tagsKey   = "ref:tags"
)

// Cache keeps the reference tables and recently mapped notes in memory.
type Cache struct {
	items *gocache.Cache
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{items: gocache.New(ttl, 2*ttl)}
}

func NoteKey(id int64) string {
	return "note:" + strconv.FormatInt(id, 10)
}

func (c *Cache) Get(key string) (*models.Note, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	note, ok := v.(*models.Note)
	return note, ok
}

func (c *Cache) Set(key string, note *models.Note) {
	c.items.SetDefault(key, note)
}

// Colors returns the cached color table keyed by id.
func (c *Cache) Colors() (map[int64]db.ColorRecord, bool) {
	v, ok := c.items.Get(colorsKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[int64]db.ColorRecord)
	return m, ok
}

func (c *Cache) SetColors(m map[int64]db.ColorRecord) {
	c.items.SetDefault(colorsKey, m)
}

// Tags returns the cached tag table keyed by id.
func (c *Cache) Tags() (map[int64]db.TagRecord, bool) {
	v, ok := c.items.Get(tagsKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[int64]db.TagRecord)
	return m, ok
}

func (c *Cache) SetTags(m map[int64]db.TagRecord) {
	c.items.SetDefault(tagsKey, m)
}

func (c *Cache) Invalidate(key string) {
	c.items.Delete(key)
}
