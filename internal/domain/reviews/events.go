package reviews

import (
	"time"

	"travelstay/internal/domain/listings"
)

const EventReviewSubmitted = "review.submitted"

type ReviewSubmitted struct {
	ReviewID   ReviewID           `json:"review_id"`
	ListingID  listings.ListingID `json:"listing_id"`
	ReviewerID string             `json:"reviewer_id"`
	Rating     int                `json:"rating"`
	At         time.Time          `json:"at"`
}

func (e ReviewSubmitted) EventName() string     { return EventReviewSubmitted }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
