package reviews

import (
	"context"
	"math"
	"strings"
	"time"

	"travelstay/internal/domain/booking"
	"travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/events"
	"travelstay/internal/domain/shared/fault"
)

var (
	ErrInvalidRating   = fault.Validation("reviews: rating must be between 1 and 5")
	ErrOwnerReview     = fault.Permission("reviews: listing owner cannot review own listing")
	ErrNoCompletedStay = fault.Permission("reviews: reviewer has no completed booking for this listing")
	ErrAlreadyReviewed = fault.Conflict("reviews: reviewer already reviewed this listing")
	ErrNotAuthor       = fault.Permission("reviews: only the author may modify this review")
	ErrNotFound        = fault.NotFound("reviews: not found")
)

type ReviewID string

type Review struct {
	ID         ReviewID
	ListingID  listings.ListingID
	ReviewerID string
	BookingID  booking.BookingID
	Rating     int
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	ByListingAndReviewer(ctx context.Context, listingID listings.ListingID, reviewerID string) (*Review, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Review, error)
	// Create must fail with ErrAlreadyReviewed when (listing, reviewer) exists.
	Create(ctx context.Context, review *Review) error
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
	Summary(ctx context.Context, listingID listings.ListingID) (Summary, error)
}

// Summary aggregates ratings of one listing.
type Summary struct {
	Count   int
	Average float64
}

// NewSummary rounds the average to two decimals; an empty listing averages 0.
func NewSummary(count int, sum float64) Summary {
	if count <= 0 {
		return Summary{}
	}
	return Summary{Count: count, Average: math.Round(sum/float64(count)*100) / 100}
}

type SubmitParams struct {
	ID         ReviewID
	Listing    *listings.Listing
	ReviewerID string
	// CompletedStay is the reviewer's completed booking at the listing, nil when absent.
	CompletedStay *booking.Booking
	// Existing is the reviewer's previous review of the listing, nil when absent.
	Existing *Review
	Rating   int
	Comment  string
	Now      time.Time
}

// Submit enforces the review gate: the owner never reviews, the reviewer must
// have stayed, and each reviewer reviews a listing once.
func Submit(params SubmitParams) (*Review, error) {
	listing := params.Listing
	if listing == nil {
		return nil, listings.ErrNotFound
	}
	if listing.IsOwner(params.ReviewerID) {
		return nil, ErrOwnerReview
	}
	stay := params.CompletedStay
	if stay == nil || stay.Status != booking.StatusCompleted || stay.GuestID != params.ReviewerID || stay.ListingID != listing.ID {
		return nil, ErrNoCompletedStay
	}
	if params.Existing != nil {
		return nil, ErrAlreadyReviewed
	}
	if err := validateRating(params.Rating); err != nil {
		return nil, err
	}
	now := stamp(params.Now)
	r := &Review{
		ID:         params.ID,
		ListingID:  listing.ID,
		ReviewerID: params.ReviewerID,
		BookingID:  stay.ID,
		Rating:     params.Rating,
		Comment:    strings.TrimSpace(params.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReviewSubmitted{ReviewID: r.ID, ListingID: r.ListingID, ReviewerID: r.ReviewerID, Rating: r.Rating, At: now})
	return r, nil
}

// Edit changes rating and/or comment; nil arguments keep the current value.
func (r *Review) Edit(actorID string, rating *int, comment *string, now time.Time) error {
	if err := r.EnsureAuthor(actorID); err != nil {
		return err
	}
	if rating != nil {
		if err := validateRating(*rating); err != nil {
			return err
		}
		r.Rating = *rating
	}
	if comment != nil {
		r.Comment = strings.TrimSpace(*comment)
	}
	r.UpdatedAt = stamp(now)
	return nil
}

func (r *Review) EnsureAuthor(actorID string) error {
	if actorID == "" || actorID != r.ReviewerID {
		return ErrNotAuthor
	}
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func stamp(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
