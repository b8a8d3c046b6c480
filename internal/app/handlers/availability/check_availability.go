package availability

import (
	"context"

	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/fault"
)

const checkAvailabilityKey = "availability.check"

// CheckAvailabilityQuery asks whether [CheckIn, CheckOut) is free on a listing.
type CheckAvailabilityQuery struct {
	ListingID string `validate:"required"`
	CheckIn   string `validate:"required"`
	CheckOut  string `validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	dr, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Availability{}, fault.Wrap(fault.ErrValidation, err)
	}

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Availability{}, err
	}
	existing, err := unit.Bookings().Overlapping(ctx, listing.ID, dr)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{
		ListingID: string(listing.ID),
		CheckIn:   dr.CheckIn.Format(daterange.DateLayout),
		CheckOut:  dr.CheckOut.Format(daterange.DateLayout),
		Available: domainbooking.IsAvailable(existing, dr),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
