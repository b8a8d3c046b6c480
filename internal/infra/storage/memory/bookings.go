package memory

import (
	"context"
	"sort"
	"time"

	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/events"
)

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, ok := r.u.st.bookings[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

// ByIDForUpdate relies on the store's write mutex held by the unit.
func (r bookingRepo) ByIDForUpdate(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r bookingRepo) Save(_ context.Context, booking *domainbooking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.st.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r bookingRepo) Overlapping(_ context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listingID && b.Status.BlocksCalendar() && b.Range.Overlaps(dr)
	}), nil
}

func (r bookingRepo) ListByGuest(_ context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r bookingRepo) ListByListing(_ context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (r bookingRepo) ListByOwner(_ context.Context, ownerID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		l, ok := r.u.st.listings[b.ListingID]
		return ok && l.OwnerID == ownerID
	}), nil
}

func (r bookingRepo) ConfirmedCheckingIn(_ context.Context, day time.Time) ([]*domainbooking.Booking, error) {
	day = daterange.Day(day)
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusConfirmed && b.Range.CheckIn.Equal(day)
	}), nil
}

func (r bookingRepo) LatestCompleted(_ context.Context, listingID domainlistings.ListingID, guestID string) (*domainbooking.Booking, error) {
	var latest *domainbooking.Booking
	for _, b := range r.u.st.bookings {
		if b.ListingID != listingID || b.GuestID != guestID || b.Status != domainbooking.StatusCompleted {
			continue
		}
		if latest == nil || b.Range.CheckOut.After(latest.Range.CheckOut) {
			latest = b
		}
	}
	if latest == nil {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(latest), nil
}

// filter returns copies of matching bookings, newest first.
func (r bookingRepo) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.u.st.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	return &c
}
