package payments

import (
	"context"
	"strings"
	"time"

	"travelstay/internal/domain/booking"
	"travelstay/internal/domain/shared/events"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

var (
	ErrNotGuest          = fault.Permission("payments: only the booking guest may pay")
	ErrNotParticipant    = fault.Permission("payments: actor is neither guest nor listing owner")
	ErrBookingNotPayable = fault.State("payments: booking must be confirmed before payment")
	ErrAlreadyPaid       = fault.Conflict("payments: booking already has a completed payment")
	ErrTxRefRequired     = fault.Validation("payments: tx_ref is required")
	ErrNotFound          = fault.NotFound("payments: payment not found")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// MapGatewayStatus translates the gateway's status vocabulary.
func MapGatewayStatus(external string) Status {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "successful", "success":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusPending
	}
}

type Payment struct {
	ID             PaymentID
	BookingID      booking.BookingID
	TransactionID  string
	Amount         money.Money
	Status         Status
	CheckoutURL    string
	GatewayPayload []byte
	// SupersededRefs lists earlier references of this payment. A checkout
	// opened under one of them can still be paid and must stay resolvable.
	SupersededRefs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	events.EventRecorder
}

type Repository interface {
	ByBookingID(ctx context.Context, bookingID booking.BookingID) (*Payment, error)
	// ByTransactionID resolves the current or a superseded reference.
	ByTransactionID(ctx context.Context, txRef string) (*Payment, error)
	// Save inserts or replaces the booking's payment row.
	Save(ctx context.Context, payment *Payment) error
}

// EnsurePayable checks that actorID may start a payment for b given the
// booking's current payment (nil when none exists).
func EnsurePayable(b *booking.Booking, actorID string, current *Payment) error {
	if actorID == "" || actorID != b.GuestID {
		return ErrNotGuest
	}
	if b.Status != booking.StatusConfirmed {
		return ErrBookingNotPayable
	}
	if current != nil && current.Status == StatusCompleted {
		return ErrAlreadyPaid
	}
	return nil
}

type StartParams struct {
	ID            PaymentID
	Booking       *booking.Booking
	TransactionID string
	CheckoutURL   string
	Now           time.Time
}

// Start opens a pending payment intent for the booking. When current is not
// nil the existing row is reused under the new transaction reference.
func Start(current *Payment, params StartParams) *Payment {
	now := stamp(params.Now)
	p := current
	if p == nil {
		p = &Payment{ID: params.ID, BookingID: params.Booking.ID, CreatedAt: now}
	}
	if p.TransactionID != "" && p.TransactionID != params.TransactionID {
		p.SupersededRefs = append(p.SupersededRefs, p.TransactionID)
	}
	p.TransactionID = params.TransactionID
	p.Amount = params.Booking.TotalPrice
	p.Status = StatusPending
	p.CheckoutURL = params.CheckoutURL
	p.UpdatedAt = now
	p.Record(PaymentInitiated{PaymentID: p.ID, BookingID: p.BookingID, TransactionID: p.TransactionID, At: now})
	return p
}

// ApplyGatewayStatus reconciles a webhook callback. Duplicate deliveries are
// no-ops, completed is final, and a late pending callback never downgrades a
// terminal payment.
func (p *Payment) ApplyGatewayStatus(external string, payload []byte, now time.Time) bool {
	next := MapGatewayStatus(external)
	if next == p.Status {
		return false
	}
	switch {
	case p.Status == StatusCompleted:
		return false
	case p.Status == StatusFailed && next == StatusPending:
		return false
	}
	prev := p.Status
	p.Status = next
	if len(payload) > 0 {
		p.GatewayPayload = append([]byte(nil), payload...)
	}
	p.UpdatedAt = stamp(now)
	p.Record(PaymentStatusChanged{
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		TransactionID: p.TransactionID,
		From:          prev,
		To:            next,
		At:            p.UpdatedAt,
	})
	return true
}

// ApplyCallback reconciles a callback for txRef. Callbacks on a superseded
// reference only count when they report a completed charge; the payment then
// adopts that reference. Anything else on an old reference is ignored so it
// cannot fail the live checkout.
func (p *Payment) ApplyCallback(txRef, external string, payload []byte, now time.Time) bool {
	if txRef != p.TransactionID {
		if !p.supersedes(txRef) || p.Status == StatusCompleted || MapGatewayStatus(external) != StatusCompleted {
			return false
		}
		p.adopt(txRef)
	}
	return p.ApplyGatewayStatus(external, payload, now)
}

func (p *Payment) supersedes(txRef string) bool {
	for _, ref := range p.SupersededRefs {
		if ref == txRef {
			return true
		}
	}
	return false
}

func (p *Payment) adopt(txRef string) {
	refs := make([]string, 0, len(p.SupersededRefs))
	for _, ref := range p.SupersededRefs {
		if ref != txRef {
			refs = append(refs, ref)
		}
	}
	p.SupersededRefs = append(refs, p.TransactionID)
	p.TransactionID = txRef
}

func stamp(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
