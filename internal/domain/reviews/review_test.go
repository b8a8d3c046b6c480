package reviews

import (
	"errors"
	"testing"
	"time"

	"travelstay/internal/domain/booking"
	"travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

func fixtures(t *testing.T) (*listings.Listing, *booking.Booking) {
	t.Helper()
	listing, err := listings.NewListing(listings.CreateParams{
		ID: "lst-1", OwnerID: "host", Title: "Hut", Location: "Gondar", MaxGuests: 2,
		NightlyPrice: money.Must(5000, "ETB"),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	dr, err := daterange.Parse("2024-06-01", "2024-06-03")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	stay, err := booking.NewBooking(booking.CreateParams{ID: "b-1", Listing: listing, GuestID: "guest", Range: dr, Guests: 1})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	for _, s := range []booking.Status{booking.StatusConfirmed, booking.StatusCompleted} {
		if _, err := stay.UpdateStatus("host", listing, s, time.Now()); err != nil {
			t.Fatalf("status %s: %v", s, err)
		}
	}
	return listing, stay
}

func TestSubmitLinksCompletedStay(t *testing.T) {
	t.Parallel()
	listing, stay := fixtures(t)
	r, err := Submit(SubmitParams{ID: "r-1", Listing: listing, ReviewerID: "guest", CompletedStay: stay, Rating: 5, Comment: " great "})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if r.BookingID != stay.ID || r.Comment != "great" {
		t.Fatalf("unexpected review %+v", r)
	}
}

func TestSubmitGate(t *testing.T) {
	t.Parallel()
	listing, stay := fixtures(t)
	pending, err := booking.NewBooking(booking.CreateParams{ID: "b-2", Listing: listing, GuestID: "guest", Range: stay.Range, Guests: 1})
	if err != nil {
		t.Fatalf("pending booking: %v", err)
	}
	cases := []struct {
		name   string
		params SubmitParams
		want   error
		kind   error
	}{
		{"owner", SubmitParams{Listing: listing, ReviewerID: "host", CompletedStay: stay, Rating: 4}, ErrOwnerReview, fault.ErrPermission},
		{"no stay", SubmitParams{Listing: listing, ReviewerID: "guest", Rating: 4}, ErrNoCompletedStay, fault.ErrPermission},
		{"stay not completed", SubmitParams{Listing: listing, ReviewerID: "guest", CompletedStay: pending, Rating: 4}, ErrNoCompletedStay, fault.ErrPermission},
		{"someone else's stay", SubmitParams{Listing: listing, ReviewerID: "other", CompletedStay: stay, Rating: 4}, ErrNoCompletedStay, fault.ErrPermission},
		{"duplicate", SubmitParams{Listing: listing, ReviewerID: "guest", CompletedStay: stay, Existing: &Review{ID: "r-0"}, Rating: 4}, ErrAlreadyReviewed, fault.ErrConflict},
		{"rating", SubmitParams{Listing: listing, ReviewerID: "guest", CompletedStay: stay, Rating: 6}, ErrInvalidRating, fault.ErrValidation},
	}
	for _, tc := range cases {
		_, err := Submit(tc.params)
		if !errors.Is(err, tc.want) || !errors.Is(err, tc.kind) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestEditRequiresAuthor(t *testing.T) {
	t.Parallel()
	r := &Review{ID: "r-1", ReviewerID: "guest", Rating: 3}
	rating := 5
	if err := r.Edit("host", &rating, nil, time.Now()); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected author check, got %v", err)
	}
	bad := 0
	if err := r.Edit("guest", &bad, nil, time.Now()); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected rating validation, got %v", err)
	}
	if err := r.Edit("guest", &rating, nil, time.Now()); err != nil || r.Rating != 5 {
		t.Fatalf("edit failed: rating=%d err=%v", r.Rating, err)
	}
}
