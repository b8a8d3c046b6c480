package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/middleware"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	ActorID         string
	ListingID       string `validate:"required"`
	CheckIn         string `validate:"required"`
	CheckOut        string `validate:"required"`
	Guests          int
	SpecialRequests string `validate:"max=2000"`
	// TotalPrice overrides the computed total when not empty.
	TotalPrice      string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string            { return createBookingKey }
func (c CreateBookingCommand) Actor() string          { return c.ActorID }
func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateBookingCommand) ResultPrototype() any   { return &dto.Booking{} }

// CreateBookingHandler locks the listing row before reading the stays that
// could collide, so two concurrent requests for the same dates serialize and
// the loser sees the winner's booking.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	dr, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.ErrValidation, err)
	}

	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	listing, err := unit.Listings().ByIDForUpdate(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().Overlapping(ctx, listing.ID, dr)
	if err != nil {
		return nil, err
	}

	var override *money.Money
	if cmd.TotalPrice != "" {
		total, err := money.Parse(cmd.TotalPrice, listing.NightlyPrice.Currency)
		if err != nil {
			return nil, fault.Wrap(fault.ErrValidation, err)
		}
		override = &total
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(uuid.NewString()),
		Listing:         listing,
		GuestID:         cmd.ActorID,
		Range:           dr,
		Guests:          cmd.Guests,
		SpecialRequests: cmd.SpecialRequests,
		TotalPrice:      override,
		Existing:        existing,
		Now:             time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("booking created", "booking_id", booking.ID, "listing_id", listing.ID, "guest_id", booking.GuestID, "range", dr.String())
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

var (
	_ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                         = CreateBookingCommand{}
)
