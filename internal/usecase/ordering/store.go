package ordering

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// Store keeps the user-defined order of every bucket.
// Orders are advisory: they are a view preference with no server representation.
type Store struct {
	OrderRepo domain.OrderRepository

	mu     sync.RWMutex
	orders map[domain.BucketKey][]string
}

// NewStore creates a new Store instance
func NewStore(orderRepo domain.OrderRepository) *Store {
	return &Store{
		OrderRepo: orderRepo,
		orders:    make(map[domain.BucketKey][]string),
	}
}

// Load reads the stored order of every key and merges it into memory.
// Keys with nothing stored are skipped. A failing key does not stop the others.
func (s *Store) Load(ctx context.Context, keys []domain.BucketKey) error {
	var result *multierror.Error
	for _, key := range keys {
		ids, ok, err := s.OrderRepo.Load(ctx, key)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to load order for %s: %w", key, err))
			continue
		}
		if !ok {
			continue
		}
		s.mu.Lock()
		s.orders[key] = slices.Clone(ids)
		s.mu.Unlock()
	}
	return result.ErrorOrNil()
}

// Get returns the order list of a bucket
func (s *Store) Get(key domain.BucketKey) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders[key])
}

// Set replaces the order list of a bucket and persists it.
// The in-memory order is updated even when persisting fails.
func (s *Store) Set(ctx context.Context, key domain.BucketKey, ids []string) error {
	s.mu.Lock()
	s.orders[key] = slices.Clone(ids)
	s.mu.Unlock()

	if err := s.OrderRepo.Save(ctx, key, ids); err != nil {
		return fmt.Errorf("failed to save order for %s: %w", key, err)
	}
	return nil
}

// Sorted returns assets sorted by the order list of their bucket
func (s *Store) Sorted(key domain.BucketKey, assets []domain.Asset) []domain.Asset {
	return Apply(assets, s.Get(key))
}

// Reconcile drops ids that no longer match any asset of the bucket
func (s *Store) Reconcile(key domain.BucketKey, assets []domain.Asset) {
	present := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		present[a.Base().ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.orders[key]
	if !ok {
		return
	}
	s.orders[key] = slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		_, ok := present[id]
		return !ok
	})
}

// Move moves the item at index from to index to within the visible list and persists the result.
// visible must be the list as displayed: filtered first, then ordered.
// Returns false when the move is a no-op or out of range; nothing is written in that case.
func (s *Store) Move(ctx context.Context, key domain.BucketKey, visible []domain.Asset, from, to int) (bool, error) {
	if from == to || from < 0 || to < 0 || from >= len(visible) || to >= len(visible) {
		return false, nil
	}

	moved := MoveItem(domain.AssetIDs(visible), from, to)
	if err := s.Set(ctx, key, placeVisible(moved, s.Get(key))); err != nil {
		return true, err
	}
	return true, nil
}

// MoveUp moves an item one position towards the top of the visible list
func (s *Store) MoveUp(ctx context.Context, key domain.BucketKey, visible []domain.Asset, id string) (bool, error) {
	i := indexOf(visible, id)
	if i < 0 {
		return false, domain.ErrNotFound
	}
	return s.Move(ctx, key, visible, i, i-1)
}

// MoveDown moves an item one position towards the bottom of the visible list
func (s *Store) MoveDown(ctx context.Context, key domain.BucketKey, visible []domain.Asset, id string) (bool, error) {
	i := indexOf(visible, id)
	if i < 0 {
		return false, domain.ErrNotFound
	}
	return s.Move(ctx, key, visible, i, i+1)
}

// MoveByID moves the dragged item to the position of the drop target (drag and drop)
func (s *Store) MoveByID(ctx context.Context, key domain.BucketKey, visible []domain.Asset, dragID, targetID string) (bool, error) {
	from, to := indexOf(visible, dragID), indexOf(visible, targetID)
	if from < 0 || to < 0 {
		return false, domain.ErrNotFound
	}
	return s.Move(ctx, key, visible, from, to)
}

// Apply sorts assets by an order list.
// Assets listed in ids come first, by their index in ids; the others follow in source order.
// Ids that match no asset are ignored. The input slice is not modified.
func Apply(assets []domain.Asset, ids []string) []domain.Asset {
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}

	out := slices.Clone(assets)
	slices.SortStableFunc(out, func(a, b domain.Asset) int {
		ra, okA := rank[a.Base().ID]
		rb, okB := rank[b.Base().ID]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
	return out
}

// MoveItem returns a copy of ids with the element at from moved to index to.
// For adjacent indexes this is a swap.
func MoveItem(ids []string, from, to int) []string {
	out := slices.Clone(ids)
	if from == to || from < 0 || to < 0 || from >= len(out) || to >= len(out) {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// placeVisible writes the reordered visible ids back into the slots they held in the stored order.
// Ids hidden from the visible list (e.g. by the family filter) keep their positions.
// Visible ids missing from the stored order are appended first, in visible order.
func placeVisible(visible, stored []string) []string {
	isVisible := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		isVisible[id] = struct{}{}
	}

	out := slices.Clone(stored)
	inStored := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		inStored[id] = struct{}{}
	}
	for _, id := range visible {
		if _, ok := inStored[id]; !ok {
			out = append(out, id)
		}
	}

	next := 0
	for i, id := range out {
		if _, ok := isVisible[id]; ok {
			out[i] = visible[next]
			next++
		}
	}
	return out
}

func indexOf(assets []domain.Asset, id string) int {
	return slices.IndexFunc(assets, func(a domain.Asset) bool { return a.Base().ID == id })
}
