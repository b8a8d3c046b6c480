package booking

import (
	"time"

	"travelstay/internal/domain/listings"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingReminder      = "booking.reminder"
)

type BookingCreated struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	GuestID   string             `json:"guest_id"`
	OwnerID   string             `json:"owner_id"`
	CheckIn   string             `json:"check_in"`
	CheckOut  string             `json:"check_out"`
	Total     string             `json:"total_price"`
	Currency  string             `json:"currency"`
	At        time.Time          `json:"at"`
}

func (e BookingCreated) EventName() string     { return EventBookingCreated }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	At        time.Time          `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return EventBookingStatusChanged }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

// BookingReminder is recorded once per confirmed stay, the day before check-in.
type BookingReminder struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	GuestID   string             `json:"guest_id"`
	CheckIn   string             `json:"check_in"`
	At        time.Time          `json:"at"`
}

func (e BookingReminder) EventName() string     { return EventBookingReminder }
func (e BookingReminder) AggregateID() string   { return string(e.BookingID) }
func (e BookingReminder) OccurredAt() time.Time { return e.At }
