package trash

import (
	"slices"
	"sync"
)

// Selection is the set of notes picked for a bulk trash action.
type Selection struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle adds the id if absent and removes it otherwise. It reports whether
// the id is selected afterwards.
func (s *Selection) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{})
}
