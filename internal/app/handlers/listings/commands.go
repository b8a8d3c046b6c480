package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/uow"
	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

const (
	createListingKey     = "listings.create"
	updateListingKey     = "listings.update"
	deactivateListingKey = "listings.deactivate"
)

type CreateListingCommand struct {
	ActorID      string
	Title        string `validate:"required,max=200"`
	Description  string
	ListingType  string
	NightlyPrice string `validate:"required"`
	Currency     string
	Location     string `validate:"required,max=200"`
	Address      string
	MaxGuests    int `validate:"gte=1"`
	Bedrooms     int `validate:"gte=0"`
	Bathrooms    int `validate:"gte=0"`
	Amenities    []string
}

func (c CreateListingCommand) Key() string   { return createListingKey }
func (c CreateListingCommand) Actor() string { return c.ActorID }

type CreateListingHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	listingType, err := domainlistings.ParseType(cmd.ListingType)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(cmd.NightlyPrice, cmd.Currency)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		OwnerID:      cmd.ActorID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		Type:         listingType,
		NightlyPrice: price,
		Location:     cmd.Location,
		Address:      cmd.Address,
		MaxGuests:    cmd.MaxGuests,
		Bedrooms:     cmd.Bedrooms,
		Bathrooms:    cmd.Bathrooms,
		Amenities:    cmd.Amenities,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := scope.Unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", listing.OwnerID)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapListing(listing)
	return &out, nil
}

// UpdateListingCommand is a partial update; nil fields are kept.
type UpdateListingCommand struct {
	ActorID      string
	ListingID    string `validate:"required"`
	Title        *string
	Description  *string
	ListingType  *string
	NightlyPrice *string
	Currency     string
	Location     *string
	Address      *string
	MaxGuests    *int
	Bedrooms     *int
	Bathrooms    *int
	Amenities    []string
	IsActive     *bool
}

func (c UpdateListingCommand) Key() string   { return updateListingKey }
func (c UpdateListingCommand) Actor() string { return c.ActorID }

type UpdateListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	listing, err := scope.Unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	params := domainlistings.UpdateParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		Location:    cmd.Location,
		Address:     cmd.Address,
		MaxGuests:   cmd.MaxGuests,
		Bedrooms:    cmd.Bedrooms,
		Bathrooms:   cmd.Bathrooms,
		Amenities:   cmd.Amenities,
		IsActive:    cmd.IsActive,
		Now:         time.Now().UTC(),
	}
	if cmd.ListingType != nil {
		t, err := domainlistings.ParseType(*cmd.ListingType)
		if err != nil {
			return nil, err
		}
		params.Type = &t
	}
	if cmd.NightlyPrice != nil {
		currency := cmd.Currency
		if currency == "" {
			currency = listing.NightlyPrice.Currency
		}
		price, err := parsePrice(*cmd.NightlyPrice, currency)
		if err != nil {
			return nil, err
		}
		params.NightlyPrice = &price
	}
	if err := listing.Update(cmd.ActorID, params); err != nil {
		return nil, err
	}
	if err := scope.Unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapListing(listing)
	return &out, nil
}

type DeactivateListingCommand struct {
	ActorID   string
	ListingID string `validate:"required"`
}

func (c DeactivateListingCommand) Key() string   { return deactivateListingKey }
func (c DeactivateListingCommand) Actor() string { return c.ActorID }

type DeactivateListingHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *DeactivateListingHandler) Handle(ctx context.Context, cmd DeactivateListingCommand) (*dto.Listing, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)

	listing, err := scope.Unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.Deactivate(cmd.ActorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := scope.Unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("listing deactivated", "listing_id", listing.ID)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapListing(listing)
	return &out, nil
}

func parsePrice(value, currency string) (money.Money, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	price, err := money.Parse(value, currency)
	if err != nil {
		return money.Money{}, fault.Wrap(fault.ErrValidation, err)
	}
	return price, nil
}

var (
	_ commands.Handler[CreateListingCommand, *dto.Listing]     = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingCommand, *dto.Listing]     = (*UpdateListingHandler)(nil)
	_ commands.Handler[DeactivateListingCommand, *dto.Listing] = (*DeactivateListingHandler)(nil)
)
