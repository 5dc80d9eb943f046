package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/patrickmn/go-cache"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

const rosterCacheKey = "family-members"

type wireFamilyMember struct {
	ID           FlexID `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// FamilyMembers exposes the roster endpoint as a domain.FamilyMemberRepository
type FamilyMembers struct {
	client *Client
}

// FamilyMembers returns the roster repository backed by this client
func (c *Client) FamilyMembers() *FamilyMembers {
	return &FamilyMembers{client: c}
}

// List retrieves the family roster.
// The roster is fetched once and cached; some deployments only serve the trailing-slash path.
func (f *FamilyMembers) List(ctx context.Context) (domain.Roster, error) {
	c := f.client
	if cached, ok := c.cache.Get(rosterCacheKey); ok {
		return cached.(domain.Roster), nil
	}

	var records []wireFamilyMember
	err := c.do(ctx, http.MethodGet, "/api/family-members", nil, &records)
	var rejected *domain.RejectedError
	if errors.As(err, &rejected) && (rejected.Status == http.StatusNotFound || rejected.Status == http.StatusTemporaryRedirect) {
		err = c.do(ctx, http.MethodGet, "/api/family-members/", nil, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}

	roster := make(domain.Roster, 0, len(records))
	for _, r := range records {
		roster = append(roster, domain.FamilyMember{
			ID:           string(r.ID),
			Name:         r.Name,
			Relationship: r.Relationship,
		})
	}
	c.cache.Set(rosterCacheKey, roster, cache.DefaultExpiration)
	return roster, nil
}

// Invalidate drops the cached roster
func (f *FamilyMembers) Invalidate() {
	f.client.cache.Delete(rosterCacheKey)
}
