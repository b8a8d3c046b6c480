package payments

import (
	"context"

	"travelstay/internal/app/dto"
	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
)

const getPaymentKey = "payments.get"

type GetPaymentQuery struct {
	ActorID   string
	BookingID string `validate:"required"`
}

func (q GetPaymentQuery) Key() string   { return getPaymentKey }
func (q GetPaymentQuery) Actor() string { return q.ActorID }

type GetPaymentHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPaymentHandler) Handle(ctx context.Context, q GetPaymentQuery) (dto.Payment, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Payment{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Payment{}, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return dto.Payment{}, err
	}
	if !booking.IsParticipant(q.ActorID, listing) {
		return dto.Payment{}, domainpayments.ErrNotParticipant
	}
	payment, err := unit.Payments().ByBookingID(ctx, booking.ID)
	if err != nil {
		return dto.Payment{}, err
	}
	return dto.MapPayment(payment), nil
}

var _ queries.Handler[GetPaymentQuery, dto.Payment] = (*GetPaymentHandler)(nil)
