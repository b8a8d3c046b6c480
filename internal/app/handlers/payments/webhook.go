package payments

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainpayments "travelstay/internal/domain/payments"
)

const handleWebhookKey = "payments.webhook"

// HandleWebhookCommand carries a gateway callback. It has no actor: the
// gateway is authenticated, if at all, by the transport signature check.
type HandleWebhookCommand struct {
	TransactionID string
	Status        string
	Payload       []byte
}

func (c HandleWebhookCommand) Key() string { return handleWebhookKey }

// HandleWebhookHandler reconciles the payment named by the callback and, for
// a successful one, confirms the pending booking. Redelivered and reordered
// callbacks leave already reconciled state untouched.
type HandleWebhookHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *HandleWebhookHandler) Handle(ctx context.Context, cmd HandleWebhookCommand) (*dto.WebhookAck, error) {
	txRef := strings.TrimSpace(cmd.TransactionID)
	if txRef == "" {
		return nil, domainpayments.ErrTxRefRequired
	}

	scope, ctx, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	payment, err := unit.Payments().ByTransactionID(ctx, txRef)
	if err != nil {
		return nil, err
	}
	// The booking row lock serializes this callback with initiation and other
	// callbacks; the payment is re-read under it.
	booking, err := unit.Bookings().ByIDForUpdate(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if payment, err = unit.Payments().ByTransactionID(ctx, txRef); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	paymentChanged := payment.ApplyCallback(txRef, cmd.Status, cmd.Payload, now)
	bookingChanged := false
	if payment.Status == domainpayments.StatusCompleted {
		bookingChanged = booking.ConfirmPayment(now)
	}
	if paymentChanged {
		if err := unit.Payments().Save(ctx, payment); err != nil {
			return nil, err
		}
	}
	if bookingChanged {
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return nil, err
		}
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, payment, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		uow.AfterCommit(ctx, func() {
			h.Logger.Info("payment webhook reconciled",
				"tx_ref", txRef,
				"external_status", cmd.Status,
				"payment_status", payment.Status,
				"booking_status", booking.Status,
				"changed", paymentChanged || bookingChanged,
			)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	return &dto.WebhookAck{
		Status:        "ok",
		TransactionID: txRef,
		PaymentStatus: string(payment.Status),
		BookingStatus: string(booking.Status),
		Changed:       paymentChanged || bookingChanged,
	}, nil
}

var _ commands.Handler[HandleWebhookCommand, *dto.WebhookAck] = (*HandleWebhookHandler)(nil)
