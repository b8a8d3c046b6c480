package dto

import (
	"time"

	domainpayments "travelstay/internal/domain/payments"
)

type Payment struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        MoneyDTO  `json:"amount"`
	Status        string    `json:"status"`
	CheckoutURL   string    `json:"checkout_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WebhookAck is returned to the gateway after a callback was reconciled.
type WebhookAck struct {
	Status        string `json:"status"`
	TransactionID string `json:"tx_ref"`
	PaymentStatus string `json:"payment_status"`
	BookingStatus string `json:"booking_status"`
	Changed       bool   `json:"changed"`
}

func MapPayment(p *domainpayments.Payment) Payment {
	if p == nil {
		return Payment{}
	}
	return Payment{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		TransactionID: p.TransactionID,
		Amount:        MapMoney(p.Amount),
		Status:        string(p.Status),
		CheckoutURL:   p.CheckoutURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
