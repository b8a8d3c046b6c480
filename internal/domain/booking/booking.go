package booking

import (
	"context"
	"strings"
	"time"

	"travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/events"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

var (
	ErrInvalidGuests     = fault.Validation("booking: guests count must be at least 1")
	ErrCapacityExceeded  = fault.Validation("booking: guests exceed listing capacity")
	ErrInvalidStatus     = fault.Validation("booking: status must be one of pending, confirmed, cancelled, completed")
	ErrInvalidTotal      = fault.Validation("booking: total price must be positive and in listing currency")
	ErrGuestRequired     = fault.Validation("booking: guest is required")
	ErrTotalOutOfRange   = fault.Validation("booking: stay too long for the nightly price")
	ErrDatesUnavailable  = fault.Conflict("booking: listing is already booked for the selected dates")
	ErrInvalidTransition = fault.State("booking: status transition not allowed")
	ErrNotListingOwner   = fault.Permission("booking: only the listing owner may change booking status")
	ErrNotParticipant    = fault.Permission("booking: actor is neither guest nor listing owner")
	ErrNotFound          = fault.NotFound("booking: not found")
)

type BookingID string

type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	TotalPrice      money.Money
	SpecialRequests string
	Status          Status
	// RemindedAt is zero until the pre-arrival reminder went out.
	RemindedAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// ByIDForUpdate reads the booking and holds it until the unit ends so
	// concurrent status changes apply one after another.
	ByIDForUpdate(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// Overlapping returns pending or confirmed bookings of the listing whose
	// stay intersects dr.
	Overlapping(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Booking, error)
	// ConfirmedCheckingIn lists confirmed bookings whose stay starts on day.
	ConfirmedCheckingIn(ctx context.Context, day time.Time) ([]*Booking, error)
	// LatestCompleted returns the most recent completed stay of guestID at the
	// listing or ErrNotFound.
	LatestCompleted(ctx context.Context, listingID listings.ListingID, guestID string) (*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	Listing         *listings.Listing
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	SpecialRequests string
	// TotalPrice overrides the nights × nightly price computation when set.
	TotalPrice *money.Money
	// Existing holds the bookings already occupying the listing; they are
	// expected to be read under the listing lock.
	Existing []*Booking
	Now      time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	listing := params.Listing
	if listing == nil {
		return nil, listings.ErrNotFound
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, fault.Wrap(fault.ErrValidation, err)
	}
	if !listing.IsActive {
		return nil, listings.ErrInactive
	}
	if params.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if params.Guests > listing.MaxGuests {
		return nil, ErrCapacityExceeded
	}
	if !IsAvailable(params.Existing, params.Range) {
		return nil, ErrDatesUnavailable
	}
	total, err := Quote(listing, params.Range)
	if err != nil {
		return nil, err
	}
	if params.TotalPrice != nil {
		if !params.TotalPrice.IsPositive() || params.TotalPrice.Currency != listing.NightlyPrice.Currency {
			return nil, ErrInvalidTotal
		}
		total = *params.TotalPrice
	}
	now := stamp(params.Now)
	b := &Booking{
		ID:              params.ID,
		ListingID:       listing.ID,
		GuestID:         params.GuestID,
		Range:           params.Range,
		Guests:          params.Guests,
		TotalPrice:      total,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingCreated{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		OwnerID:   listing.OwnerID,
		CheckIn:   b.Range.CheckIn.Format(daterange.DateLayout),
		CheckOut:  b.Range.CheckOut.Format(daterange.DateLayout),
		Total:     b.TotalPrice.Decimal(),
		Currency:  b.TotalPrice.Currency,
		At:        now,
	})
	return b, nil
}

// Quote returns nights × nightly price for the listing.
func Quote(listing *listings.Listing, dr daterange.DateRange) (money.Money, error) {
	if err := dr.Validate(); err != nil {
		return money.Money{}, fault.Wrap(fault.ErrValidation, err)
	}
	total, err := listing.NightlyPrice.Multiply(int64(dr.Nights()))
	if err != nil {
		return money.Money{}, ErrTotalOutOfRange
	}
	return total, nil
}

// UpdateStatus applies an owner-driven transition. It reports whether the
// status actually changed; requesting the current status is a no-op.
func (b *Booking) UpdateStatus(actorID string, listing *listings.Listing, next Status, now time.Time) (bool, error) {
	if listing == nil || !listing.IsOwner(actorID) {
		return false, ErrNotListingOwner
	}
	if !next.IsValid() {
		return false, ErrInvalidStatus
	}
	return b.transition(next, now)
}

// Cancel is available to both the guest and the listing owner.
func (b *Booking) Cancel(actorID string, listing *listings.Listing, now time.Time) (bool, error) {
	if !b.IsParticipant(actorID, listing) {
		return false, ErrNotParticipant
	}
	return b.transition(StatusCancelled, now)
}

// ConfirmPayment moves a pending booking to confirmed after a successful
// payment. Confirmed bookings are left alone and terminal ones are never
// resurrected; the return value tells whether anything changed.
func (b *Booking) ConfirmPayment(now time.Time) bool {
	if b.Status != StatusPending {
		return false
	}
	changed, err := b.transition(StatusConfirmed, now)
	return err == nil && changed
}

// Remind records the pre-arrival reminder for a confirmed stay. It fires at
// most once per booking.
func (b *Booking) Remind(now time.Time) bool {
	if b.Status != StatusConfirmed || !b.RemindedAt.IsZero() {
		return false
	}
	b.RemindedAt = stamp(now)
	b.Record(BookingReminder{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		CheckIn:   b.Range.CheckIn.Format(daterange.DateLayout),
		At:        b.RemindedAt,
	})
	return true
}

func (b *Booking) IsParticipant(actorID string, listing *listings.Listing) bool {
	if actorID == "" {
		return false
	}
	if actorID == b.GuestID {
		return true
	}
	return listing != nil && listing.IsOwner(actorID)
}

func (b *Booking) transition(next Status, now time.Time) (bool, error) {
	if b.Status == next {
		return false, nil
	}
	if !b.Status.CanTransitionTo(next) {
		return false, ErrInvalidTransition
	}
	prev := b.Status
	b.Status = next
	b.UpdatedAt = stamp(now)
	b.Record(BookingStatusChanged{
		BookingID: b.ID,
		ListingID: b.ListingID,
		From:      prev,
		To:        next,
		At:        b.UpdatedAt,
	})
	return true, nil
}

func stamp(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
