// Package notifications turns committed domain events into plain-text emails.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/policies"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainpayments "travelstay/internal/domain/payments"
	domainuser "travelstay/internal/domain/user"
)

// Dispatcher is the consumer side of the outbox. It is safe to call with the
// same record more than once; duplicates are filtered upstream by the inbox.
type Dispatcher struct {
	UoWFactory uow.UoWFactory
	Mailer     policies.Mailer
	Logger     *slog.Logger
}

// stay bundles everything a booking message needs.
type stay struct {
	booking *domainbooking.Booking
	listing *domainlistings.Listing
	guest   *domainuser.User
	host    *domainuser.User
}

// Handle dispatches one event. Unknown event names are ignored.
func (d *Dispatcher) Handle(ctx context.Context, rec outbox.EventRecord) error {
	switch rec.Name {
	case domainbooking.EventBookingCreated:
		var ev domainbooking.BookingCreated
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		s, err := d.load(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		return d.send(ctx, bookingConfirmationEmail(s), hostNewBookingEmail(s))
	case domainbooking.EventBookingStatusChanged:
		var ev domainbooking.BookingStatusChanged
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		s, err := d.load(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		return d.send(ctx, bookingStatusEmail(s, ev.To))
	case domainbooking.EventBookingReminder:
		var ev domainbooking.BookingReminder
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		s, err := d.load(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		if s.booking.Status != domainbooking.StatusConfirmed {
			return nil
		}
		return d.send(ctx, bookingReminderEmail(s))
	case domainpayments.EventPaymentStatusChanged:
		var ev domainpayments.PaymentStatusChanged
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		if ev.To == domainpayments.StatusPending {
			return nil
		}
		s, err := d.load(ctx, ev.BookingID)
		if err != nil {
			return err
		}
		return d.send(ctx, paymentEmail(s, ev.To, ev.TransactionID))
	default:
		if d.Logger != nil {
			d.Logger.Debug("notification skipped", "event", rec.Name, "event_id", rec.ID)
		}
		return nil
	}
}

func (d *Dispatcher) load(ctx context.Context, id domainbooking.BookingID) (stay, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, d.UoWFactory)
	if err != nil {
		return stay{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	var s stay
	if s.booking, err = unit.Bookings().ByID(ctx, id); err != nil {
		return stay{}, err
	}
	if s.listing, err = unit.Listings().ByID(ctx, s.booking.ListingID); err != nil {
		return stay{}, err
	}
	if s.guest, err = unit.Users().ByID(ctx, domainuser.ID(s.booking.GuestID)); err != nil {
		return stay{}, err
	}
	if s.host, err = unit.Users().ByID(ctx, domainuser.ID(s.listing.OwnerID)); err != nil {
		return stay{}, err
	}
	return s, nil
}

// send attempts every message and reports the joined failures.
func (d *Dispatcher) send(ctx context.Context, msgs ...policies.Email) error {
	var errs []error
	for _, msg := range msgs {
		if err := d.Mailer.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notifications: send %q to %s: %w", msg.Subject, msg.To, err))
		}
	}
	return errors.Join(errs...)
}
