package payments

import (
	"context"
	"errors"
	"testing"

	"travelstay/internal/app/policies"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainpayments "travelstay/internal/domain/payments"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
	domainuser "travelstay/internal/domain/user"
	"travelstay/internal/infra/storage/memory"
)

const (
	ownerID = "owner-1"
	guestID = "guest-1"
)

type stubGateway struct {
	calls []policies.CheckoutRequest
	err   error
}

func (g *stubGateway) Initiate(_ context.Context, req policies.CheckoutRequest) (policies.CheckoutSession, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return policies.CheckoutSession{}, g.err
	}
	return policies.CheckoutSession{CheckoutURL: "https://checkout.example/" + req.TransactionID}, nil
}

func seed(t *testing.T, status domainbooking.Status) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           "listing-1",
		OwnerID:      ownerID,
		Title:        "Gondar castle loft",
		Location:     "Gondar",
		MaxGuests:    2,
		NightlyPrice: money.Must(10000, "ETB"),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	dr, _ := daterange.Parse("2024-06-01", "2024-06-04")
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: "booking-1", Listing: listing, GuestID: guestID, Range: dr, Guests: 1})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	booking.Status = status
	guest, err := domainuser.NewUser(domainuser.CreateParams{ID: guestID, Email: "guest@example.com", FirstName: "Abebe", LastName: "Bikila", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("user: %v", err)
	}

	unit, _ := store.Begin(ctx, uow.TxOptions{})
	_ = unit.Listings().Save(ctx, listing)
	_ = unit.Bookings().Save(ctx, booking)
	_ = unit.Users().Create(ctx, guest)
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return store
}

func fixedRef(ref string) func() string { return func() string { return ref } }

func TestInitiatePaymentPreconditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pending := seed(t, domainbooking.StatusPending)
	h := &InitiatePaymentHandler{UoWFactory: pending, Gateway: &stubGateway{}}
	if _, err := h.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"}); !errors.Is(err, fault.ErrState) {
		t.Fatalf("pending booking must not be payable, got %v", err)
	}

	confirmed := seed(t, domainbooking.StatusConfirmed)
	h = &InitiatePaymentHandler{UoWFactory: confirmed, Gateway: &stubGateway{}}
	if _, err := h.Handle(ctx, InitiatePaymentCommand{ActorID: ownerID, BookingID: "booking-1"}); !errors.Is(err, fault.ErrPermission) {
		t.Fatalf("only the guest pays, got %v", err)
	}
	if _, err := h.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "missing"}); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	t.Parallel()
	store := seed(t, domainbooking.StatusConfirmed)
	h := &InitiatePaymentHandler{UoWFactory: store, Gateway: &stubGateway{err: errors.New("dial tcp: refused")}}

	_, err := h.Handle(context.Background(), InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"})
	if !errors.Is(err, policies.ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
	unit, _ := store.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	if _, err := unit.Payments().ByBookingID(context.Background(), "booking-1"); !errors.Is(err, domainpayments.ErrNotFound) {
		t.Fatalf("failed initiation must not persist a payment, got %v", err)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	t.Parallel()
	store := seed(t, domainbooking.StatusConfirmed)
	gateway := &stubGateway{}
	ctx := context.Background()

	initiate := &InitiatePaymentHandler{UoWFactory: store, Gateway: gateway, NewTransactionID: fixedRef("tx-1")}
	payment, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if payment.Status != "pending" || payment.CheckoutURL != "https://checkout.example/tx-1" || payment.Amount.Amount != "300.00" {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if req := gateway.calls[0]; req.Email != "guest@example.com" || req.FirstName != "Abebe" || req.Amount.Amount != 30000 {
		t.Fatalf("unexpected gateway request %+v", req)
	}

	// A retry before the callback reuses the row under a new reference.
	initiate.NewTransactionID = fixedRef("tx-2")
	again, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"})
	if err != nil {
		t.Fatalf("re-initiate: %v", err)
	}
	if again.ID != payment.ID || again.TransactionID != "tx-2" {
		t.Fatalf("expected the row to be reused, got %+v", again)
	}

	webhook := &HandleWebhookHandler{UoWFactory: store}
	stale, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-1", Status: "failed"})
	if err != nil || stale.Changed || stale.PaymentStatus != "pending" {
		t.Fatalf("failure on a superseded reference must be ignored: %+v %v", stale, err)
	}
	if _, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-unknown", Status: "successful"}); !errors.Is(err, domainpayments.ErrNotFound) {
		t.Fatalf("unknown reference must be not found, got %v", err)
	}
	ack, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-2", Status: "successful", Payload: []byte(`{"status":"successful"}`)})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if !ack.Changed || ack.PaymentStatus != "completed" || ack.BookingStatus != "confirmed" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	queued := store.Outbox().Pending()

	dup, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-2", Status: "successful"})
	if err != nil || dup.Changed {
		t.Fatalf("duplicate delivery must be a no-op: %+v %v", dup, err)
	}
	late, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-2", Status: "pending"})
	if err != nil || late.PaymentStatus != "completed" {
		t.Fatalf("late pending must not downgrade: %+v %v", late, err)
	}
	if store.Outbox().Pending() != queued {
		t.Fatalf("no-op callbacks must not enqueue events")
	}

	if _, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"}); !errors.Is(err, fault.ErrConflict) {
		t.Fatalf("paid booking must reject a new payment, got %v", err)
	}

	get := &GetPaymentHandler{UoWFactory: store}
	read, err := get.Handle(ctx, GetPaymentQuery{ActorID: ownerID, BookingID: "booking-1"})
	if err != nil || read.Status != "completed" {
		t.Fatalf("owner read: %+v %v", read, err)
	}
	if _, err := get.Handle(ctx, GetPaymentQuery{ActorID: "stranger", BookingID: "booking-1"}); !errors.Is(err, fault.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestWebhookFailedThenSuccessful(t *testing.T) {
	t.Parallel()
	store := seed(t, domainbooking.StatusConfirmed)
	ctx := context.Background()
	initiate := &InitiatePaymentHandler{UoWFactory: store, Gateway: &stubGateway{}, NewTransactionID: fixedRef("tx-9")}
	if _, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"}); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	webhook := &HandleWebhookHandler{UoWFactory: store}

	if _, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "  "}); !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("blank tx_ref must be rejected, got %v", err)
	}
	failed, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-9", Status: "FAILED"})
	if err != nil || failed.PaymentStatus != "failed" {
		t.Fatalf("failed callback: %+v %v", failed, err)
	}
	ok, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-9", Status: "successful"})
	if err != nil || ok.PaymentStatus != "completed" {
		t.Fatalf("failed payment may still complete: %+v %v", ok, err)
	}
	if _, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-9", Status: "failed"}); err != nil {
		t.Fatalf("late failure: %v", err)
	}
	unit, _ := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	p, _ := unit.Payments().ByTransactionID(ctx, "tx-9")
	if p.Status != domainpayments.StatusCompleted {
		t.Fatalf("completed must be sticky, got %s", p.Status)
	}
}

func TestLateChargeOnSupersededReferenceSettles(t *testing.T) {
	t.Parallel()
	store := seed(t, domainbooking.StatusConfirmed)
	ctx := context.Background()
	initiate := &InitiatePaymentHandler{UoWFactory: store, Gateway: &stubGateway{}, NewTransactionID: fixedRef("tx-1")}
	if _, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"}); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	initiate.NewTransactionID = fixedRef("tx-2")
	if _, err := initiate.Handle(ctx, InitiatePaymentCommand{ActorID: guestID, BookingID: "booking-1"}); err != nil {
		t.Fatalf("re-initiate: %v", err)
	}

	webhook := &HandleWebhookHandler{UoWFactory: store}
	ack, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-1", Status: "successful"})
	if err != nil || !ack.Changed || ack.PaymentStatus != "completed" {
		t.Fatalf("charge on the first checkout must settle: %+v %v", ack, err)
	}
	if ack, err := webhook.Handle(ctx, HandleWebhookCommand{TransactionID: "tx-2", Status: "failed"}); err != nil || ack.Changed || ack.PaymentStatus != "completed" {
		t.Fatalf("abandoned checkout must not undo the charge: %+v %v", ack, err)
	}

	read, err := (&GetPaymentHandler{UoWFactory: store}).Handle(ctx, GetPaymentQuery{ActorID: guestID, BookingID: "booking-1"})
	if err != nil || read.TransactionID != "tx-1" {
		t.Fatalf("expected the charged reference on the payment, got %+v %v", read, err)
	}
}
