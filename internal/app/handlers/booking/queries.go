package booking

import (
	"context"
	"sort"

	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
)

const (
	getBookingKey          = "booking.get"
	listBookingsKey        = "booking.list"
	listListingBookingsKey = "booking.list_by_listing"
)

type GetBookingQuery struct {
	ActorID   string
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string   { return getBookingKey }
func (q GetBookingQuery) Actor() string { return q.ActorID }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return dto.Booking{}, err
	}
	if !booking.IsParticipant(q.ActorID, listing) {
		return dto.Booking{}, domainbooking.ErrNotParticipant
	}
	return dto.MapBooking(booking), nil
}

// Booking list roles.
const (
	RoleGuest = "guest"
	RoleHost  = "host"
)

// ListBookingsQuery returns the bookings the actor made, the bookings on the
// actor's listings, or both when Role is empty. Newest first.
type ListBookingsQuery struct {
	ActorID string
	Role    string `validate:"omitempty,oneof=guest host"`
}

func (q ListBookingsQuery) Key() string   { return listBookingsKey }
func (q ListBookingsQuery) Actor() string { return q.ActorID }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var merged []*domainbooking.Booking
	seen := make(map[domainbooking.BookingID]struct{})
	add := func(items []*domainbooking.Booking) {
		for _, b := range items {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			merged = append(merged, b)
		}
	}
	if q.Role != RoleHost {
		items, err := unit.Bookings().ListByGuest(ctx, q.ActorID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		add(items)
	}
	if q.Role != RoleGuest {
		items, err := unit.Bookings().ListByOwner(ctx, q.ActorID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		add(items)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return dto.MapBookingCollection(merged), nil
}

// ListListingBookingsQuery is restricted to the listing owner.
type ListListingBookingsQuery struct {
	ActorID   string
	ListingID string `validate:"required"`
}

func (q ListListingBookingsQuery) Key() string   { return listListingBookingsKey }
func (q ListListingBookingsQuery) Actor() string { return q.ActorID }

type ListListingBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListListingBookingsHandler) Handle(ctx context.Context, q ListListingBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if err := listing.EnsureOwner(q.ActorID); err != nil {
		return dto.BookingCollection{}, err
	}
	items, err := unit.Bookings().ListByListing(ctx, listing.ID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.MapBookingCollection(items), nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]                    = (*GetBookingHandler)(nil)
	_ queries.Handler[ListBookingsQuery, dto.BookingCollection]        = (*ListBookingsHandler)(nil)
	_ queries.Handler[ListListingBookingsQuery, dto.BookingCollection] = (*ListListingBookingsHandler)(nil)
)
