package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainreviews "travelstay/internal/domain/reviews"
)

const createReviewKey = "reviews.create"

// CreateReviewCommand reviews a listing the actor has stayed at.
type CreateReviewCommand struct {
	ActorID   string
	ListingID string `validate:"required"`
	Rating    int
	Comment   string `validate:"max=5000"`
}

func (c CreateReviewCommand) Key() string   { return createReviewKey }
func (c CreateReviewCommand) Actor() string { return c.ActorID }

type CreateReviewHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateReviewHandler) Handle(ctx context.Context, cmd CreateReviewCommand) (*dto.Review, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	stay, err := unit.Bookings().LatestCompleted(ctx, listing.ID, cmd.ActorID)
	if err != nil && !errors.Is(err, domainbooking.ErrNotFound) {
		return nil, err
	}
	existing, err := unit.Reviews().ByListingAndReviewer(ctx, listing.ID, cmd.ActorID)
	if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
		return nil, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:            domainreviews.ReviewID(uuid.NewString()),
		Listing:       listing,
		ReviewerID:    cmd.ActorID,
		CompletedStay: stay,
		Existing:      existing,
		Rating:        cmd.Rating,
		Comment:       cmd.Comment,
		Now:           time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reviews().Create(ctx, review); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, review); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("review submitted", "review_id", review.ID, "listing_id", listing.ID, "reviewer_id", cmd.ActorID, "rating", review.Rating)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapReview(review)
	return &out, nil
}

var _ commands.Handler[CreateReviewCommand, *dto.Review] = (*CreateReviewHandler)(nil)
