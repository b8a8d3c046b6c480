package booking

import (
	"context"
	"log/slog"
	"time"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
)

const (
	updateBookingStatusKey = "booking.update_status"
	cancelBookingKey       = "booking.cancel"
)

type UpdateBookingStatusCommand struct {
	ActorID   string
	BookingID string `validate:"required"`
	Status    string `validate:"required"`
}

func (c UpdateBookingStatusCommand) Key() string   { return updateBookingStatusKey }
func (c UpdateBookingStatusCommand) Actor() string { return c.ActorID }

// UpdateBookingStatusHandler lets the listing owner move a booking through
// the status table. Requesting the current status changes nothing.
type UpdateBookingStatusHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*dto.Booking, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	booking, err := unit.Bookings().ByIDForUpdate(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwner(cmd.ActorID) {
		return nil, domainbooking.ErrNotListingOwner
	}
	next, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	from := booking.Status
	changed, err := booking.UpdateStatus(cmd.ActorID, listing, next, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return nil, err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, booking); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			uow.AfterCommit(ctx, func() {
				h.Logger.Info("booking status changed", "booking_id", booking.ID, "from", from, "to", booking.Status)
			})
		}
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

type CancelBookingCommand struct {
	ActorID   string
	BookingID string `validate:"required"`
}

func (c CancelBookingCommand) Key() string   { return cancelBookingKey }
func (c CancelBookingCommand) Actor() string { return c.ActorID }

// CancelBookingHandler is available to the guest and the listing owner.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	booking, err := unit.Bookings().ByIDForUpdate(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	changed, err := booking.Cancel(cmd.ActorID, listing, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return nil, err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, booking); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			uow.AfterCommit(ctx, func() {
				h.Logger.Info("booking cancelled", "booking_id", booking.ID, "actor_id", cmd.ActorID)
			})
		}
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapBooking(booking)
	return &out, nil
}

var (
	_ commands.Handler[UpdateBookingStatusCommand, *dto.Booking] = (*UpdateBookingStatusHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.Booking]       = (*CancelBookingHandler)(nil)
)
