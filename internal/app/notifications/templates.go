package notifications

import (
	"fmt"
	"strings"

	"travelstay/internal/app/policies"
	domainbooking "travelstay/internal/domain/booking"
	domainpayments "travelstay/internal/domain/payments"
	"travelstay/internal/domain/shared/daterange"
)

func bookingConfirmationEmail(s stay) policies.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.guest.FullName())
	fmt.Fprintf(&b, "Your booking at %s has been received.\n\n", s.listing.Title)
	writeStay(&b, s)
	b.WriteString("\nWe will let you know as soon as the host confirms it.\n")
	return policies.Email{
		To:      s.guest.Email,
		Subject: "Booking received: " + s.listing.Title,
		Body:    b.String(),
	}
}

func hostNewBookingEmail(s stay) policies.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.host.FullName())
	fmt.Fprintf(&b, "%s requested a stay at %s.\n\n", s.guest.FullName(), s.listing.Title)
	writeStay(&b, s)
	if s.booking.SpecialRequests != "" {
		fmt.Fprintf(&b, "Special requests: %s\n", s.booking.SpecialRequests)
	}
	return policies.Email{
		To:      s.host.Email,
		Subject: "New booking request: " + s.listing.Title,
		Body:    b.String(),
	}
}

var statusMessages = map[domainbooking.Status]string{
	domainbooking.StatusConfirmed: "Your booking has been confirmed. We look forward to hosting you.",
	domainbooking.StatusCancelled: "Your booking has been cancelled.",
	domainbooking.StatusCompleted: "Your stay is complete. We hope you enjoyed it and would love a review.",
	domainbooking.StatusPending:   "Your booking is pending confirmation.",
}

func bookingStatusEmail(s stay, status domainbooking.Status) policies.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.guest.FullName())
	b.WriteString(statusMessages[status])
	b.WriteString("\n\n")
	writeStay(&b, s)
	return policies.Email{
		To:      s.guest.Email,
		Subject: fmt.Sprintf("Booking %s: %s", status, s.listing.Title),
		Body:    b.String(),
	}
}

func bookingReminderEmail(s stay) policies.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.guest.FullName())
	fmt.Fprintf(&b, "This is a reminder that your stay at %s in %s starts tomorrow.\n\n", s.listing.Title, s.listing.Location)
	writeStay(&b, s)
	b.WriteString("\nWe look forward to hosting you.\n")
	return policies.Email{
		To:      s.guest.Email,
		Subject: "Booking reminder: " + s.listing.Title,
		Body:    b.String(),
	}
}

func paymentEmail(s stay, status domainpayments.Status, txRef string) policies.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.guest.FullName())
	subject := "Payment received: " + s.listing.Title
	if status == domainpayments.StatusFailed {
		subject = "Payment failed: " + s.listing.Title
		b.WriteString("We could not process your payment. Please try again from your booking page.\n\n")
	} else {
		fmt.Fprintf(&b, "We received your payment of %s.\n\n", s.booking.TotalPrice)
	}
	writeStay(&b, s)
	fmt.Fprintf(&b, "Transaction reference: %s\n", txRef)
	return policies.Email{To: s.guest.Email, Subject: subject, Body: b.String()}
}

func writeStay(b *strings.Builder, s stay) {
	fmt.Fprintf(b, "Booking: %s\n", s.booking.ID)
	fmt.Fprintf(b, "Check-in: %s\n", s.booking.Range.CheckIn.Format(daterange.DateLayout))
	fmt.Fprintf(b, "Check-out: %s\n", s.booking.Range.CheckOut.Format(daterange.DateLayout))
	fmt.Fprintf(b, "Guests: %d\n", s.booking.Guests)
	fmt.Fprintf(b, "Total: %s\n", s.booking.TotalPrice)
}
