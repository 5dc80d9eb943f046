package selection

import (
	"slices"
	"sync"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// Store tracks the checked assets of every bucket for bulk operations.
// Selections are ephemeral and never persisted.
type Store struct {
	mu       sync.RWMutex
	selected map[domain.BucketKey]map[string]struct{}
}

// NewStore creates a new Store instance
func NewStore() *Store {
	return &Store{selected: make(map[domain.BucketKey]map[string]struct{})}
}

// Toggle flips the selection of one asset and returns its new state
func (s *Store) Toggle(key domain.BucketKey, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.set(key)
	if _, ok := set[id]; ok {
		delete(set, id)
		return false
	}
	set[id] = struct{}{}
	return true
}

// SelectAll selects every given id of a bucket, replacing the current selection
func (s *Store) SelectAll(key domain.BucketKey, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.selected[key] = set
}

// DeselectAll clears the selection of a bucket
func (s *Store) DeselectAll(key domain.BucketKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, key)
}

// IsSelected reports whether an asset is selected
func (s *Store) IsSelected(key domain.BucketKey, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[key][id]
	return ok
}

// AreAllSelected reports whether every id is selected.
// An empty list is never "all selected".
func (s *Store) AreAllSelected(key domain.BucketKey, ids []string) bool {
	if len(ids) == 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.selected[key]
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Selected returns the selected ids of a bucket, sorted
func (s *Store) Selected(key domain.BucketKey) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.selected[key]))
	for id := range s.selected[key] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// set returns the selection set of a bucket, creating it. Caller holds the lock.
func (s *Store) set(key domain.BucketKey) map[string]struct{} {
	set, ok := s.selected[key]
	if !ok {
		set = make(map[string]struct{})
		s.selected[key] = set
	}
	return set
}
