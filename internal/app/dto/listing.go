package dto

import (
	"time"

	domainlistings "travelstay/internal/domain/listings"
	domainreviews "travelstay/internal/domain/reviews"
)

type Listing struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ListingType  string    `json:"listing_type"`
	NightlyPrice MoneyDTO  `json:"price_per_night"`
	Location     string    `json:"location"`
	Address      string    `json:"address"`
	MaxGuests    int       `json:"max_guests"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Amenities    []string  `json:"amenities"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListingDetail is the public listing card with images and rating summary.
type ListingDetail struct {
	Listing
	Images        []ListingImage `json:"images"`
	ReviewCount   int            `json:"review_count"`
	AverageRating float64        `json:"average_rating"`
}

type ListingCollection struct {
	Items  []Listing `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type ListingImage struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	URL       string    `json:"image_url"`
	Caption   string    `json:"caption,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

type Availability struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	amenities := append([]string{}, l.Amenities...)
	return Listing{
		ID:           string(l.ID),
		OwnerID:      l.OwnerID,
		Title:        l.Title,
		Description:  l.Description,
		ListingType:  string(l.Type),
		NightlyPrice: MapMoney(l.NightlyPrice),
		Location:     l.Location,
		Address:      l.Address,
		MaxGuests:    l.MaxGuests,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Amenities:    amenities,
		IsActive:     l.IsActive,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func MapListingDetail(l *domainlistings.Listing, images []*domainlistings.Image, summary domainreviews.Summary) ListingDetail {
	out := ListingDetail{
		Listing:       MapListing(l),
		Images:        make([]ListingImage, 0, len(images)),
		ReviewCount:   summary.Count,
		AverageRating: summary.Average,
	}
	for _, img := range images {
		out.Images = append(out.Images, MapListingImage(img))
	}
	return out
}

func MapListingCollection(result domainlistings.SearchResult, params domainlistings.SearchParams) ListingCollection {
	items := make([]Listing, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, MapListing(l))
	}
	return ListingCollection{Items: items, Total: result.Total, Limit: params.Limit, Offset: params.Offset}
}

func MapListingImage(img *domainlistings.Image) ListingImage {
	if img == nil {
		return ListingImage{}
	}
	return ListingImage{
		ID:        string(img.ID),
		ListingID: string(img.ListingID),
		URL:       img.URL,
		Caption:   img.Caption,
		IsPrimary: img.IsPrimary,
		CreatedAt: img.CreatedAt,
	}
}
