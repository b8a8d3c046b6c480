package listings

import (
	"context"
	"strings"
	"time"

	"travelstay/internal/domain/shared/fault"
)

var (
	ErrImageURLRequired = fault.Validation("listings: image url is required")
	ErrImageNotFound    = fault.NotFound("listings: image not found")
)

type ImageID string

type Image struct {
	ID        ImageID
	ListingID ListingID
	URL       string
	Caption   string
	IsPrimary bool
	CreatedAt time.Time
}

type ImageRepository interface {
	ListImages(ctx context.Context, listingID ListingID) ([]*Image, error)
	ImageByID(ctx context.Context, id ImageID) (*Image, error)
	SaveImage(ctx context.Context, image *Image) error
	DeleteImage(ctx context.Context, id ImageID) error
}

// NewImage attaches an uploaded object to the listing on behalf of actorID.
// The first image of a listing becomes the primary one.
func (l *Listing) NewImage(actorID string, id ImageID, url, caption string, existing int, now time.Time) (*Image, error) {
	if err := l.EnsureOwner(actorID); err != nil {
		return nil, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrImageURLRequired
	}
	return &Image{
		ID:        id,
		ListingID: l.ID,
		URL:       url,
		Caption:   strings.TrimSpace(caption),
		IsPrimary: existing == 0,
		CreatedAt: stamp(now),
	}, nil
}
