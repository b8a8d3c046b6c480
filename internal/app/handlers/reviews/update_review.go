package reviews

import (
	"context"
	"time"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/uow"
	domainreviews "travelstay/internal/domain/reviews"
)

const (
	updateReviewKey = "reviews.update"
	deleteReviewKey = "reviews.delete"
)

type UpdateReviewCommand struct {
	ActorID  string
	ReviewID string `validate:"required"`
	Rating   *int
	Comment  *string
}

func (c UpdateReviewCommand) Key() string   { return updateReviewKey }
func (c UpdateReviewCommand) Actor() string { return c.ActorID }

type UpdateReviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateReviewHandler) Handle(ctx context.Context, cmd UpdateReviewCommand) (*dto.Review, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	review, err := scope.Unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return nil, err
	}
	if err := review.Edit(cmd.ActorID, cmd.Rating, cmd.Comment, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := scope.Unit.Reviews().Update(ctx, review); err != nil {
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapReview(review)
	return &out, nil
}

type DeleteReviewCommand struct {
	ActorID  string
	ReviewID string `validate:"required"`
}

func (c DeleteReviewCommand) Key() string   { return deleteReviewKey }
func (c DeleteReviewCommand) Actor() string { return c.ActorID }

type DeleteReviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteReviewHandler) Handle(ctx context.Context, cmd DeleteReviewCommand) (*dto.Review, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	review, err := scope.Unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return nil, err
	}
	if err := review.EnsureAuthor(cmd.ActorID); err != nil {
		return nil, err
	}
	if err := scope.Unit.Reviews().Delete(ctx, review.ID); err != nil {
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapReview(review)
	return &out, nil
}

var (
	_ commands.Handler[UpdateReviewCommand, *dto.Review] = (*UpdateReviewHandler)(nil)
	_ commands.Handler[DeleteReviewCommand, *dto.Review] = (*DeleteReviewHandler)(nil)
)
