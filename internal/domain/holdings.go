package domain

// Holdings holds the in-memory asset collections, one list per bucket.
// Every asset lives in exactly one bucket, derived from its category and market.
type Holdings map[BucketKey][]Asset

// NewHoldings creates an empty Holdings
func NewHoldings() Holdings {
	return make(Holdings)
}

// Get returns the collection of a bucket
func (h Holdings) Get(key BucketKey) []Asset {
	return h[key]
}

// Add appends an asset to its bucket
func (h Holdings) Add(a Asset) {
	key := BucketOf(a)
	h[key] = append(h[key], a)
}

// Find returns the asset with the given id in a bucket
func (h Holdings) Find(key BucketKey, id string) (Asset, bool) {
	for _, a := range h[key] {
		if a.Base().ID == id {
			return a, true
		}
	}
	return nil, false
}

// Replace swaps the asset that has the same ID in the same bucket.
// Returns false when no such asset exists.
func (h Holdings) Replace(a Asset) bool {
	key := BucketOf(a)
	list := h[key]
	for i := range list {
		if list[i].Base().ID == a.Base().ID {
			list[i] = a
			return true
		}
	}
	return false
}

// Remove deletes the asset with the given id from a bucket
func (h Holdings) Remove(key BucketKey, id string) bool {
	list := h[key]
	for i := range list {
		if list[i].Base().ID == id {
			h[key] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of assets across all buckets
func (h Holdings) Len() int {
	n := 0
	for _, list := range h {
		n += len(list)
	}
	return n
}

// Clone returns a shallow copy: new slices, same asset pointers
func (h Holdings) Clone() Holdings {
	out := make(Holdings, len(h))
	for k, list := range h {
		out[k] = append([]Asset(nil), list...)
	}
	return out
}

// Of returns the typed assets of one category in a market.
// T must be the pointer type of the category variant, e.g. *Stock.
func Of[T Asset](h Holdings, m Market) []T {
	var zero T
	list := h[Key(zero.Category(), m)]
	out := make([]T, 0, len(list))
	for _, a := range list {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
