package uow

import (
	"context"

	"travelstay/internal/app/outbox"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainpayments "travelstay/internal/domain/payments"
	domainreviews "travelstay/internal/domain/reviews"
	domainuser "travelstay/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Images() domainlistings.ImageRepository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Payments() domainpayments.Repository
	Users() domainuser.Repository
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
