package dto

import (
	"time"

	domainbooking "travelstay/internal/domain/booking"
	"travelstay/internal/domain/shared/daterange"
)

type Booking struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listing_id"`
	GuestID         string    `json:"guest_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Nights          int       `json:"nights"`
	Guests          int       `json:"number_of_guests"`
	TotalPrice      MoneyDTO  `json:"total_price"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	return Booking{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		GuestID:         b.GuestID,
		CheckIn:         b.Range.CheckIn.Format(daterange.DateLayout),
		CheckOut:        b.Range.CheckOut.Format(daterange.DateLayout),
		Nights:          b.Range.Nights(),
		Guests:          b.Guests,
		TotalPrice:      MapMoney(b.TotalPrice),
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func MapBookingCollection(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]Booking, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, MapBooking(b))
	}
	return out
}
