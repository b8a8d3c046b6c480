package memory

import (
	"context"
	"sort"

	domainlistings "travelstay/internal/domain/listings"
	domainreviews "travelstay/internal/domain/reviews"
	"travelstay/internal/domain/shared/events"
)

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByID(_ context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	rev, ok := r.u.st.reviews[id]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return cloneReview(rev), nil
}

func (r reviewRepo) ByListingAndReviewer(_ context.Context, listingID domainlistings.ListingID, reviewerID string) (*domainreviews.Review, error) {
	for _, rev := range r.u.st.reviews {
		if rev.ListingID == listingID && rev.ReviewerID == reviewerID {
			return cloneReview(rev), nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

func (r reviewRepo) ListByListing(_ context.Context, listingID domainlistings.ListingID) ([]*domainreviews.Review, error) {
	out := make([]*domainreviews.Review, 0)
	for _, rev := range r.u.st.reviews {
		if rev.ListingID == listingID {
			out = append(out, cloneReview(rev))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create enforces the one-review-per-reviewer rule like the unique index of
// the SQL store does.
func (r reviewRepo) Create(ctx context.Context, review *domainreviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, err := r.ByListingAndReviewer(ctx, review.ListingID, review.ReviewerID); err == nil {
		return domainreviews.ErrAlreadyReviewed
	}
	r.u.st.reviews[review.ID] = cloneReview(review)
	return nil
}

func (r reviewRepo) Update(_ context.Context, review *domainreviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.st.reviews[review.ID]; !ok {
		return domainreviews.ErrNotFound
	}
	r.u.st.reviews[review.ID] = cloneReview(review)
	return nil
}

func (r reviewRepo) Delete(_ context.Context, id domainreviews.ReviewID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.st.reviews[id]; !ok {
		return domainreviews.ErrNotFound
	}
	delete(r.u.st.reviews, id)
	return nil
}

func (r reviewRepo) Summary(_ context.Context, listingID domainlistings.ListingID) (domainreviews.Summary, error) {
	count, sum := 0, 0
	for _, rev := range r.u.st.reviews {
		if rev.ListingID == listingID {
			count++
			sum += rev.Rating
		}
	}
	return domainreviews.NewSummary(count, float64(sum)), nil
}

func cloneReview(r *domainreviews.Review) *domainreviews.Review {
	c := *r
	c.EventRecorder = events.EventRecorder{}
	return &c
}
