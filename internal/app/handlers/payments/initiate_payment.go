package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/middleware"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/policies"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
	domainuser "travelstay/internal/domain/user"
)

const initiatePaymentKey = "payments.initiate"

type InitiatePaymentCommand struct {
	ActorID         string
	BookingID       string `validate:"required"`
	IdempotencyKeyV string
}

func (c InitiatePaymentCommand) Key() string            { return initiatePaymentKey }
func (c InitiatePaymentCommand) Actor() string          { return c.ActorID }
func (c InitiatePaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c InitiatePaymentCommand) ResultPrototype() any   { return &dto.Payment{} }

// InitiatePaymentHandler opens a checkout session with the gateway and keeps
// one pending payment row per booking under a fresh transaction reference.
// Earlier references stay resolvable so a checkout paid late still settles.
type InitiatePaymentHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	// NewTransactionID overrides reference generation in tests.
	NewTransactionID func() string
}

func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (*dto.Payment, error) {
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
	current, err := unit.Payments().ByBookingID(ctx, booking.ID)
	if err != nil && !errors.Is(err, domainpayments.ErrNotFound) {
		return nil, err
	}
	if err := domainpayments.EnsurePayable(booking, cmd.ActorID, current); err != nil {
		return nil, err
	}
	guest, err := unit.Users().ByID(ctx, domainuser.ID(booking.GuestID))
	if err != nil {
		return nil, err
	}

	txRef := h.transactionID()
	session, err := h.Gateway.Initiate(ctx, policies.CheckoutRequest{
		Amount:        booking.TotalPrice,
		Email:         guest.Email,
		FirstName:     guest.FirstName,
		LastName:      guest.LastName,
		TransactionID: txRef,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("payment gateway call failed", "booking_id", booking.ID, "tx_ref", txRef, "error", err)
		}
		if errors.Is(err, policies.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", policies.ErrGatewayUnavailable, err)
	}

	payment := domainpayments.Start(current, domainpayments.StartParams{
		ID:            domainpayments.PaymentID(uuid.NewString()),
		Booking:       booking,
		TransactionID: txRef,
		CheckoutURL:   session.CheckoutURL,
		Now:           time.Now().UTC(),
	})
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, payment); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("payment initiated", "booking_id", booking.ID, "payment_id", payment.ID, "tx_ref", txRef)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	out := dto.MapPayment(payment)
	return &out, nil
}

func (h *InitiatePaymentHandler) transactionID() string {
	if h.NewTransactionID != nil {
		return h.NewTransactionID()
	}
	return "tx-" + uuid.NewString()
}

var (
	_ commands.Handler[InitiatePaymentCommand, *dto.Payment] = (*InitiatePaymentHandler)(nil)
	_ middleware.IdempotentCommand                           = InitiatePaymentCommand{}
)
