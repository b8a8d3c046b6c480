package policies

import (
	"context"
	"errors"

	"travelstay/internal/domain/shared/money"
)

// ErrGatewayUnavailable is returned by gateway adapters for any transport or
// protocol failure. Callers surface it as is and never retry.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type CheckoutRequest struct {
	Amount        money.Money
	Email         string
	FirstName     string
	LastName      string
	TransactionID string
}

type CheckoutSession struct {
	CheckoutURL string
}

type PaymentGateway interface {
	Initiate(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}
