package listings

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/policies"
	"travelstay/internal/app/uow"
	domainlistings "travelstay/internal/domain/listings"
)

const (
	addListingImageKey    = "listings.images.add"
	removeListingImageKey = "listings.images.remove"
)

type AddListingImageCommand struct {
	ActorID     string
	ListingID   string `validate:"required"`
	FileName    string `validate:"required"`
	ContentType string
	Size        int64 `validate:"gt=0"`
	Body        io.Reader
	Caption     string `validate:"max=255"`
}

func (c AddListingImageCommand) Key() string   { return addListingImageKey }
func (c AddListingImageCommand) Actor() string { return c.ActorID }

// AddListingImageHandler checks ownership, uploads the bytes and records the
// image. A failed insert removes the uploaded object again.
type AddListingImageHandler struct {
	UoWFactory uow.UoWFactory
	Images     policies.ImageStore
	Logger     *slog.Logger
}

func (h *AddListingImageHandler) Handle(ctx context.Context, cmd AddListingImageCommand) (*dto.ListingImage, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	listing, err := scope.Unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.EnsureOwner(cmd.ActorID); err != nil {
		return nil, err
	}
	existing, err := scope.Unit.Images().ListImages(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	url, err := h.Images.Upload(ctx, policies.ImageUpload{
		ListingID:   string(listing.ID),
		FileName:    cmd.FileName,
		ContentType: cmd.ContentType,
		Size:        cmd.Size,
		Body:        cmd.Body,
	})
	if err != nil {
		return nil, err
	}
	stored := false
	defer func() {
		if !stored {
			h.discard(ctx, url)
		}
	}()

	image, err := listing.NewImage(cmd.ActorID, domainlistings.ImageID(uuid.NewString()), url, cmd.Caption, len(existing), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := scope.Unit.Images().SaveImage(ctx, image); err != nil {
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	stored = true
	out := dto.MapListingImage(image)
	return &out, nil
}

func (h *AddListingImageHandler) discard(ctx context.Context, url string) {
	if err := h.Images.Delete(context.WithoutCancel(ctx), url); err != nil && h.Logger != nil {
		h.Logger.Warn("orphaned listing image", "url", url, "error", err)
	}
}

type RemoveListingImageCommand struct {
	ActorID   string
	ListingID string `validate:"required"`
	ImageID   string `validate:"required"`
}

func (c RemoveListingImageCommand) Key() string   { return removeListingImageKey }
func (c RemoveListingImageCommand) Actor() string { return c.ActorID }

// RemoveListingImageHandler deletes the image row and, after commit, the
// stored object. When the primary image goes, the oldest remaining one is
// promoted.
type RemoveListingImageHandler struct {
	UoWFactory uow.UoWFactory
	Images     policies.ImageStore
	Logger     *slog.Logger
}

func (h *RemoveListingImageHandler) Handle(ctx context.Context, cmd RemoveListingImageCommand) (*dto.ListingImage, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	listing, err := scope.Unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.EnsureOwner(cmd.ActorID); err != nil {
		return nil, err
	}
	image, err := scope.Unit.Images().ImageByID(ctx, domainlistings.ImageID(cmd.ImageID))
	if err != nil {
		return nil, err
	}
	if image.ListingID != listing.ID {
		return nil, domainlistings.ErrImageNotFound
	}
	if err := scope.Unit.Images().DeleteImage(ctx, image.ID); err != nil {
		return nil, err
	}
	if image.IsPrimary {
		rest, err := scope.Unit.Images().ListImages(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			rest[0].IsPrimary = true
			if err := scope.Unit.Images().SaveImage(ctx, rest[0]); err != nil {
				return nil, err
			}
		}
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Images != nil {
		if err := h.Images.Delete(ctx, image.URL); err != nil && h.Logger != nil {
			h.Logger.Warn("listing image object not removed", "url", image.URL, "error", err)
		}
	}
	out := dto.MapListingImage(image)
	return &out, nil
}

var (
	_ commands.Handler[AddListingImageCommand, *dto.ListingImage]    = (*AddListingImageHandler)(nil)
	_ commands.Handler[RemoveListingImageCommand, *dto.ListingImage] = (*RemoveListingImageHandler)(nil)
)
