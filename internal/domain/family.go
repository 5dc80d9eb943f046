package domain

import "strings"

// SelfRelationship marks the account owner in the family roster
const SelfRelationship = "Self"

// FamilyMember represents a member of the household that assets can be attributed to
type FamilyMember struct {
	ID           string
	Name         string
	Relationship string
}

// IsSelf reports whether the member is the account owner (case-insensitive)
func (f FamilyMember) IsSelf() bool {
	return strings.EqualFold(strings.TrimSpace(f.Relationship), SelfRelationship)
}

// Roster is the list of family members fetched for the session
type Roster []FamilyMember

// Self returns the member whose relationship is Self
func (r Roster) Self() (FamilyMember, bool) {
	for _, m := range r {
		if m.IsSelf() {
			return m, true
		}
	}
	return FamilyMember{}, false
}

// Find returns the member with the given id
func (r Roster) Find(id string) (FamilyMember, bool) {
	id = strings.TrimSpace(id)
	for _, m := range r {
		if strings.TrimSpace(m.ID) == id {
			return m, true
		}
	}
	return FamilyMember{}, false
}
