package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

var (
	stocksIndia = domain.Key(domain.CategoryStocks, domain.MarketIndia)
	stocksEuro  = domain.Key(domain.CategoryStocks, domain.MarketEurope)
)

func TestStore_Toggle(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Toggle(stocksIndia, "a"))
	assert.True(t, s.IsSelected(stocksIndia, "a"))
	assert.False(t, s.IsSelected(stocksEuro, "a"), "selections are per bucket")

	assert.False(t, s.Toggle(stocksIndia, "a"))
	assert.False(t, s.IsSelected(stocksIndia, "a"))
}

func TestStore_AreAllSelected(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		ids      []string
		want     bool
	}{
		{name: "empty id list is never all selected", selected: []string{"a"}, ids: []string{}, want: false},
		{name: "nil id list is never all selected", selected: nil, ids: nil, want: false},
		{name: "all selected", selected: []string{"a", "b"}, ids: []string{"a", "b"}, want: true},
		{name: "one missing", selected: []string{"a"}, ids: []string{"a", "b"}, want: false},
		{name: "superset selected", selected: []string{"a", "b", "c"}, ids: []string{"b"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.SelectAll(stocksIndia, tt.selected)
			assert.Equal(t, tt.want, s.AreAllSelected(stocksIndia, tt.ids))
		})
	}
}

func TestStore_SelectAllAndDeselectAll(t *testing.T) {
	s := NewStore()
	s.Toggle(stocksIndia, "old")

	s.SelectAll(stocksIndia, []string{"c", "a", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, s.Selected(stocksIndia))

	s.DeselectAll(stocksIndia)
	assert.Empty(t, s.Selected(stocksIndia))
	assert.False(t, s.IsSelected(stocksIndia, "a"))
}

func TestStore_ConcurrentToggle(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.Toggle(stocksIndia, id)
		}(id)
	}
	wg.Wait()

	assert.True(t, s.AreAllSelected(stocksIndia, []string{"a", "b", "c", "d"}))
}
