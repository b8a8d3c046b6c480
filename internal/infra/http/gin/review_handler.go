package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	reviewsapp "travelstay/internal/app/handlers/reviews"
	"travelstay/internal/app/queries"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (h ReviewsHandler) ListByListing(c *gin.Context) {
	query := reviewsapp.ListReviewsQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[reviewsapp.ListReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "rating is required")
		return
	}
	cmd := reviewsapp.CreateReviewCommand{
		ActorID:   p.ID,
		ListingID: c.Param("id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	review, err := commands.Dispatch[reviewsapp.CreateReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) Update(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid review payload")
		return
	}
	cmd := reviewsapp.UpdateReviewCommand{ActorID: p.ID, ReviewID: c.Param("id"), Rating: req.Rating, Comment: req.Comment}
	review, err := commands.Dispatch[reviewsapp.UpdateReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h ReviewsHandler) Delete(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := reviewsapp.DeleteReviewCommand{ActorID: p.ID, ReviewID: c.Param("id")}
	if _, err := commands.Dispatch[reviewsapp.DeleteReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ ReviewsHTTP = ReviewsHandler{}
