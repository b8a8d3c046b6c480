package listings

import (
	"context"

	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
	domainlistings "travelstay/internal/domain/listings"
)

const (
	getListingKey     = "listings.get"
	searchListingsKey = "listings.search"
)

// GetListingQuery is public. Inactive listings are only shown to their owner.
type GetListingQuery struct {
	ListingID string `validate:"required"`
	ViewerID  string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingDetail, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if !listing.IsActive && !listing.IsOwner(q.ViewerID) {
		return dto.ListingDetail{}, domainlistings.ErrNotFound
	}
	images, err := unit.Images().ListImages(ctx, listing.ID)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	summary, err := unit.Reviews().Summary(ctx, listing.ID)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	return dto.MapListingDetail(listing, images, summary), nil
}

// SearchListingsQuery describes the public catalog filters. Prices are
// decimal strings in the listing currency.
type SearchListingsQuery struct {
	ListingType string
	Location    string
	MinPrice    string
	MaxPrice    string
	Guests      int `validate:"gte=0"`
	Text        string
	OwnerID     string
	OnlyActive  bool
	Limit       int `validate:"gte=0"`
	Offset      int `validate:"gte=0"`
}

func (q SearchListingsQuery) Key() string { return searchListingsKey }

type SearchListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainlistings.SearchParams{
		Location:        q.Location,
		Guests:          q.Guests,
		Text:            q.Text,
		OwnerID:         q.OwnerID,
		IncludeInactive: !q.OnlyActive,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.ListingType != "" {
		t, err := domainlistings.ParseType(q.ListingType)
		if err != nil {
			return dto.ListingCollection{}, err
		}
		params.Type = t
	}
	if params.MinPrice, err = priceBound(q.MinPrice); err != nil {
		return dto.ListingCollection{}, err
	}
	if params.MaxPrice, err = priceBound(q.MaxPrice); err != nil {
		return dto.ListingCollection{}, err
	}
	params = params.Normalized()

	result, err := unit.Listings().Search(ctx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(result, params), nil
}

func priceBound(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	price, err := parsePrice(raw, "")
	if err != nil {
		return nil, err
	}
	amount := price.Amount
	return &amount, nil
}

var (
	_ queries.Handler[GetListingQuery, dto.ListingDetail]         = (*GetListingHandler)(nil)
	_ queries.Handler[SearchListingsQuery, dto.ListingCollection] = (*SearchListingsHandler)(nil)
)
