package dto

import (
	"time"

	domainreviews "travelstay/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	ReviewerID string    `json:"reviewer_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReviewCollection struct {
	Items         []Review `json:"items"`
	Count         int      `json:"count"`
	AverageRating float64  `json:"average_rating"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		ListingID:  string(review.ListingID),
		ReviewerID: review.ReviewerID,
		BookingID:  string(review.BookingID),
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
}

func MapReviewCollection(items []*domainreviews.Review, summary domainreviews.Summary) ReviewCollection {
	out := ReviewCollection{
		Items:         make([]Review, 0, len(items)),
		Count:         summary.Count,
		AverageRating: summary.Average,
	}
	for _, r := range items {
		out.Items = append(out.Items, MapReview(r))
	}
	return out
}
