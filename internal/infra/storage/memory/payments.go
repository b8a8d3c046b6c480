package memory

import (
	"context"
	"slices"

	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
	"travelstay/internal/domain/shared/events"
	"travelstay/internal/domain/shared/fault"
)

var errDuplicateTransaction = fault.Conflict("memory: transaction reference already used")

type paymentRepo struct{ u *Unit }

func (r paymentRepo) ByBookingID(_ context.Context, bookingID domainbooking.BookingID) (*domainpayments.Payment, error) {
	for _, p := range r.u.st.payments {
		if p.BookingID == bookingID {
			return clonePayment(p), nil
		}
	}
	return nil, domainpayments.ErrNotFound
}

func (r paymentRepo) ByTransactionID(_ context.Context, txRef string) (*domainpayments.Payment, error) {
	for _, p := range r.u.st.payments {
		if p.TransactionID == txRef || slices.Contains(p.SupersededRefs, txRef) {
			return clonePayment(p), nil
		}
	}
	return nil, domainpayments.ErrNotFound
}

// Save upserts by booking: a booking holds at most one payment row.
func (r paymentRepo) Save(_ context.Context, payment *domainpayments.Payment) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for id, p := range r.u.st.payments {
		if id == payment.ID {
			continue
		}
		if p.TransactionID == payment.TransactionID || slices.Contains(p.SupersededRefs, payment.TransactionID) {
			return errDuplicateTransaction
		}
		if p.BookingID == payment.BookingID {
			delete(r.u.st.payments, id)
		}
	}
	r.u.st.payments[payment.ID] = clonePayment(payment)
	return nil
}

func clonePayment(p *domainpayments.Payment) *domainpayments.Payment {
	c := *p
	c.GatewayPayload = append([]byte(nil), p.GatewayPayload...)
	c.SupersededRefs = slices.Clone(p.SupersededRefs)
	c.EventRecorder = events.EventRecorder{}
	return &c
}
