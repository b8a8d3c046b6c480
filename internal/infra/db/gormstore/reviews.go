package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainreviews "travelstay/internal/domain/reviews"
)

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	return r.take(r.u.conn(ctx).Where("id = ?", string(id)), "review by id")
}

func (r reviewRepo) ByListingAndReviewer(ctx context.Context, listingID domainlistings.ListingID, reviewerID string) (*domainreviews.Review, error) {
	return r.take(r.u.conn(ctx).Where("listing_id = ? AND reviewer_id = ?", string(listingID), reviewerID), "review by reviewer")
}

func (r reviewRepo) take(q *gorm.DB, op string) (*domainreviews.Review, error) {
	var row Review
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, wrap(op, err)
	}
	return row.toDomain(), nil
}

func (r reviewRepo) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreviews.Review, error) {
	var rows []Review
	err := r.u.conn(ctx).Where("listing_id = ?", string(listingID)).Order("created_at DESC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	out := make([]*domainreviews.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Create relies on the (listing_id, reviewer_id) unique index; a concurrent
// second review surfaces as ErrAlreadyReviewed.
func (r reviewRepo) Create(ctx context.Context, review *domainreviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row := newReviewRow(review)
	if err := r.u.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainreviews.ErrAlreadyReviewed
		}
		return wrap("create review", err)
	}
	return nil
}

func (r reviewRepo) Update(ctx context.Context, review *domainreviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	res := r.u.conn(ctx).Model(&Review{}).Where("id = ?", string(review.ID)).Updates(map[string]any{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"updated_at": review.UpdatedAt,
	})
	if res.Error != nil {
		return wrap("update review", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainreviews.ErrNotFound
	}
	return nil
}

func (r reviewRepo) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	res := r.u.conn(ctx).Where("id = ?", string(id)).Delete(&Review{})
	if res.Error != nil {
		return wrap("delete review", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainreviews.ErrNotFound
	}
	return nil
}

func (r reviewRepo) Summary(ctx context.Context, listingID domainlistings.ListingID) (domainreviews.Summary, error) {
	var agg struct {
		Count int64
		Total float64
	}
	err := r.u.conn(ctx).Model(&Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("listing_id = ?", string(listingID)).
		Scan(&agg).Error
	if err != nil {
		return domainreviews.Summary{}, wrap("review summary", err)
	}
	return domainreviews.NewSummary(int(agg.Count), agg.Total), nil
}

func newReviewRow(r *domainreviews.Review) Review {
	return Review{
		ID:         string(r.ID),
		ListingID:  string(r.ListingID),
		ReviewerID: r.ReviewerID,
		BookingID:  string(r.BookingID),
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (row Review) toDomain() *domainreviews.Review {
	return &domainreviews.Review{
		ID:         domainreviews.ReviewID(row.ID),
		ListingID:  domainlistings.ListingID(row.ListingID),
		ReviewerID: row.ReviewerID,
		BookingID:  domainbooking.BookingID(row.BookingID),
		Rating:     row.Rating,
		Comment:    row.Comment,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}
