package listings

import (
	"strings"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchParams mirrors the public catalog filters. Prices are in minor units.
type SearchParams struct {
	Type            ListingType
	Location        string
	MinPrice        *int64
	MaxPrice        *int64
	Guests          int
	Text            string
	OwnerID         string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type SearchResult struct {
	Items []*Listing
	Total int
}

func (p SearchParams) Normalized() SearchParams {
	out := p
	out.Location = strings.TrimSpace(p.Location)
	out.Text = strings.TrimSpace(p.Text)
	out.OwnerID = strings.TrimSpace(p.OwnerID)
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	}
	if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	if out.Guests < 0 {
		out.Guests = 0
	}
	return out
}

// Matches evaluates the filters against a single listing. Stores that cannot
// push filters down to the database use it directly.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if !p.IncludeInactive && !l.IsActive {
		return false
	}
	if p.OwnerID != "" && l.OwnerID != p.OwnerID {
		return false
	}
	if p.Type != "" && l.Type != p.Type {
		return false
	}
	if p.Location != "" && !containsFold(l.Location, p.Location) {
		return false
	}
	if p.MinPrice != nil && l.NightlyPrice.Amount < *p.MinPrice {
		return false
	}
	if p.MaxPrice != nil && l.NightlyPrice.Amount > *p.MaxPrice {
		return false
	}
	if p.Guests > 0 && l.MaxGuests < p.Guests {
		return false
	}
	if p.Text != "" && !containsFold(l.Title, p.Text) && !containsFold(l.Description, p.Text) && !containsFold(l.Location, p.Text) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
