package payments

import (
	"time"

	"travelstay/internal/domain/booking"
)

const (
	EventPaymentInitiated     = "payment.initiated"
	EventPaymentStatusChanged = "payment.status_changed"
)

type PaymentInitiated struct {
	PaymentID     PaymentID         `json:"payment_id"`
	BookingID     booking.BookingID `json:"booking_id"`
	TransactionID string            `json:"tx_ref"`
	At            time.Time         `json:"at"`
}

func (e PaymentInitiated) EventName() string     { return EventPaymentInitiated }
func (e PaymentInitiated) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentInitiated) OccurredAt() time.Time { return e.At }

type PaymentStatusChanged struct {
	PaymentID     PaymentID         `json:"payment_id"`
	BookingID     booking.BookingID `json:"booking_id"`
	TransactionID string            `json:"tx_ref"`
	From          Status            `json:"from"`
	To            Status            `json:"to"`
	At            time.Time         `json:"at"`
}

func (e PaymentStatusChanged) EventName() string     { return EventPaymentStatusChanged }
func (e PaymentStatusChanged) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentStatusChanged) OccurredAt() time.Time { return e.At }
