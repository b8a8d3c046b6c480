package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	availabilityapp "travelstay/internal/app/handlers/availability"
	bookingapp "travelstay/internal/app/handlers/booking"
	listingapp "travelstay/internal/app/handlers/listings"
	"travelstay/internal/app/queries"
)

const maxListingImageSizeBytes int64 = 10 * 1024 * 1024

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type listingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	ListingType  *string  `json:"listing_type"`
	NightlyPrice *string  `json:"price_per_night"`
	Currency     string   `json:"currency"`
	Location     *string  `json:"location"`
	Address      *string  `json:"address"`
	MaxGuests    *int     `json:"max_guests"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	Amenities    []string `json:"amenities"`
	IsActive     *bool    `json:"is_active"`
}

// Search serves the public catalog. Inactive listings are only included for
// an authenticated owner asking for their own listings.
func (h ListingHandler) Search(c *gin.Context) {
	query := listingapp.SearchListingsQuery{
		ListingType: strings.TrimSpace(c.Query("listing_type")),
		Location:    strings.TrimSpace(c.Query("location")),
		MinPrice:    strings.TrimSpace(c.Query("min_price")),
		MaxPrice:    strings.TrimSpace(c.Query("max_price")),
		Guests:      parseNonNegativeInt(c.Query("guests"), 0),
		Text:        strings.TrimSpace(c.Query("search")),
		OnlyActive:  parseBool(c.Query("only_active"), true),
		Limit:       parseNonNegativeInt(c.Query("limit"), 0),
		Offset:      parseNonNegativeInt(c.Query("offset"), 0),
	}
	if viewer := viewerID(c); viewer != "" && (c.Query("owner") == "me" || !query.OnlyActive) {
		query.OwnerID = viewer
	} else {
		query.OnlyActive = true
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid listing payload")
		return
	}
	cmd := listingapp.CreateListingCommand{
		ActorID:      p.ID,
		Title:        deref(req.Title),
		Description:  deref(req.Description),
		ListingType:  deref(req.ListingType),
		NightlyPrice: deref(req.NightlyPrice),
		Currency:     req.Currency,
		Location:     deref(req.Location),
		Address:      deref(req.Address),
		Amenities:    req.Amenities,
	}
	if req.MaxGuests != nil {
		cmd.MaxGuests = *req.MaxGuests
	}
	if req.Bedrooms != nil {
		cmd.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		cmd.Bathrooms = *req.Bathrooms
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ListingID: c.Param("id"), ViewerID: viewerID(c)}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.ListingDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid listing payload")
		return
	}
	cmd := listingapp.UpdateListingCommand{
		ActorID:      p.ID,
		ListingID:    c.Param("id"),
		Title:        req.Title,
		Description:  req.Description,
		ListingType:  req.ListingType,
		NightlyPrice: req.NightlyPrice,
		Currency:     req.Currency,
		Location:     req.Location,
		Address:      req.Address,
		MaxGuests:    req.MaxGuests,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Amenities:    req.Amenities,
		IsActive:     req.IsActive,
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Deactivate(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := listingapp.DeactivateListingCommand{ActorID: p.ID, ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.DeactivateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) AddImage(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxListingImageSizeBytes+1024*1024)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	if fileHeader.Size > maxListingImageSizeBytes {
		badRequest(c, fmt.Sprintf("image exceeds %d MB", maxListingImageSizeBytes/(1024*1024)))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		badRequest(c, "only image uploads are accepted")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "image file is unreadable")
		return
	}
	defer file.Close()

	cmd := listingapp.AddListingImageCommand{
		ActorID:     p.ID,
		ListingID:   c.Param("id"),
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
		Caption:     strings.TrimSpace(c.PostForm("caption")),
	}
	result, err := commands.Dispatch[listingapp.AddListingImageCommand, *dto.ListingImage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) RemoveImage(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := listingapp.RemoveListingImageCommand{ActorID: p.ID, ListingID: c.Param("id"), ImageID: c.Param("imageId")}
	if _, err := commands.Dispatch[listingapp.RemoveListingImageCommand, *dto.ListingImage](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) Availability(c *gin.Context) {
	query := availabilityapp.CheckAvailabilityQuery{
		ListingID: c.Param("id"),
		CheckIn:   c.Query("check_in"),
		CheckOut:  c.Query("check_out"),
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Bookings(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.ListListingBookingsQuery{ActorID: p.ID, ListingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.ListListingBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseNonNegativeInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func parseBool(raw string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

var _ ListingHTTP = ListingHandler{}
