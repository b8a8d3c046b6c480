package reviews

import (
	"context"

	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
	domainlistings "travelstay/internal/domain/listings"
)

const listReviewsKey = "reviews.list"

type ListReviewsQuery struct {
	ListingID string `validate:"required"`
}

func (q ListReviewsQuery) Key() string { return listReviewsKey }

type ListReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReviewsHandler) Handle(ctx context.Context, q ListReviewsQuery) (dto.ReviewCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	items, err := unit.Reviews().ListByListing(ctx, listing.ID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	summary, err := unit.Reviews().Summary(ctx, listing.ID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviewCollection(items, summary), nil
}

var _ queries.Handler[ListReviewsQuery, dto.ReviewCollection] = (*ListReviewsHandler)(nil)
