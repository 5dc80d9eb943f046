package familyfilter

import (
	"strings"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// All is the filter value that shows every asset
const All = "all"

// Filter restricts asset lists to one family member
type Filter struct {
	Value  string
	Roster domain.Roster
}

// New creates a Filter; an empty value means All
func New(value string, roster domain.Roster) Filter {
	value = strings.TrimSpace(value)
	if value == "" {
		value = All
	}
	return Filter{Value: value, Roster: roster}
}

// IsAll reports whether the filter is the identity
func (f Filter) IsAll() bool {
	v := strings.TrimSpace(f.Value)
	return v == "" || strings.EqualFold(v, All)
}

// Match reports whether an asset passes the filter.
// The Self member's id selects exactly the unassigned assets.
func (f Filter) Match(a domain.Asset) bool {
	if f.IsAll() {
		return true
	}

	value := strings.TrimSpace(f.Value)
	owner := strings.TrimSpace(a.Base().FamilyMemberID)
	if self, ok := f.Roster.Self(); ok && strings.TrimSpace(self.ID) == value {
		return owner == ""
	}
	return owner != "" && owner == value
}

// Apply returns the assets that pass the filter, preserving order.
// The All filter returns the input unchanged.
func (f Filter) Apply(assets []domain.Asset) []domain.Asset {
	if f.IsAll() {
		return assets
	}
	out := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// ApplyHoldings filters every bucket of h
func (f Filter) ApplyHoldings(h domain.Holdings) domain.Holdings {
	if f.IsAll() {
		return h
	}
	out := make(domain.Holdings, len(h))
	for key, list := range h {
		out[key] = f.Apply(list)
	}
	return out
}
