package payments

import (
	"errors"
	"testing"
	"time"

	"travelstay/internal/domain/booking"
	"travelstay/internal/domain/shared/money"
)

func TestMapGatewayStatus(t *testing.T) {
	t.Parallel()
	cases := map[string]Status{
		"successful":  StatusCompleted,
		" Successful": StatusCompleted,
		"failed":      StatusFailed,
		"pending":     StatusPending,
		"refunded":    StatusPending,
		"":            StatusPending,
	}
	for in, want := range cases {
		if got := MapGatewayStatus(in); got != want {
			t.Fatalf("MapGatewayStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEnsurePayable(t *testing.T) {
	t.Parallel()
	confirmed := &booking.Booking{ID: "b-1", GuestID: "guest", Status: booking.StatusConfirmed}
	pending := &booking.Booking{ID: "b-2", GuestID: "guest", Status: booking.StatusPending}
	cases := []struct {
		name    string
		booking *booking.Booking
		actor   string
		current *Payment
		want    error
	}{
		{"ok", confirmed, "guest", nil, nil},
		{"retry after failure", confirmed, "guest", &Payment{Status: StatusFailed}, nil},
		{"stranger", confirmed, "host", nil, ErrNotGuest},
		{"not confirmed", pending, "guest", nil, ErrBookingNotPayable},
		{"already paid", confirmed, "guest", &Payment{Status: StatusCompleted}, ErrAlreadyPaid},
	}
	for _, tc := range cases {
		if err := EnsurePayable(tc.booking, tc.actor, tc.current); !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestStartReusesExistingRow(t *testing.T) {
	t.Parallel()
	b := &booking.Booking{ID: "b-1", GuestID: "guest", Status: booking.StatusConfirmed, TotalPrice: money.Must(30000, "ETB")}
	first := Start(nil, StartParams{ID: "p-1", Booking: b, TransactionID: "tx-1", CheckoutURL: "https://pay/1"})
	first.Status = StatusFailed
	second := Start(first, StartParams{ID: "p-2", Booking: b, TransactionID: "tx-2", CheckoutURL: "https://pay/2"})
	if second.ID != "p-1" || second.TransactionID != "tx-2" || second.Status != StatusPending {
		t.Fatalf("unexpected payment %+v", second)
	}
	if second.Amount.Amount != 30000 {
		t.Fatalf("expected amount copied from booking, got %s", second.Amount)
	}
}

func TestApplyGatewayStatusIsIdempotent(t *testing.T) {
	t.Parallel()
	p := &Payment{ID: "p-1", Status: StatusPending}
	if !p.ApplyGatewayStatus("successful", []byte(`{"status":"successful"}`), time.Now()) {
		t.Fatalf("first delivery must apply")
	}
	p.ClearEvents()
	if p.ApplyGatewayStatus("successful", nil, time.Now()) {
		t.Fatalf("duplicate delivery must be a no-op")
	}
	if len(p.PendingEvents()) != 0 {
		t.Fatalf("duplicate delivery must not emit events")
	}
	if p.ApplyGatewayStatus("failed", nil, time.Now()) || p.Status != StatusCompleted {
		t.Fatalf("completed payment must stay completed")
	}
}

func TestApplyGatewayStatusOutOfOrder(t *testing.T) {
	t.Parallel()
	p := &Payment{ID: "p-1", Status: StatusPending}
	p.ApplyGatewayStatus("failed", nil, time.Now())
	if p.ApplyGatewayStatus("pending", nil, time.Now()) || p.Status != StatusFailed {
		t.Fatalf("late pending must not downgrade failed")
	}
	if !p.ApplyGatewayStatus("successful", nil, time.Now()) || p.Status != StatusCompleted {
		t.Fatalf("late success must complete a failed payment")
	}
}

func TestApplyCallbackOnSupersededReference(t *testing.T) {
	t.Parallel()
	b := &booking.Booking{ID: "b-1", GuestID: "guest", Status: booking.StatusConfirmed, TotalPrice: money.Must(30000, "ETB")}
	p := Start(nil, StartParams{ID: "p-1", Booking: b, TransactionID: "tx-1"})
	p = Start(p, StartParams{Booking: b, TransactionID: "tx-2"})
	if len(p.SupersededRefs) != 1 || p.SupersededRefs[0] != "tx-1" {
		t.Fatalf("expected tx-1 kept as superseded, got %v", p.SupersededRefs)
	}

	if p.ApplyCallback("tx-1", "failed", nil, time.Now()) || p.Status != StatusPending {
		t.Fatalf("failure on an old reference must not touch the live checkout, got %s", p.Status)
	}
	if p.ApplyCallback("tx-9", "successful", nil, time.Now()) {
		t.Fatal("unknown reference must be ignored")
	}
	if !p.ApplyCallback("tx-1", "successful", nil, time.Now()) || p.Status != StatusCompleted {
		t.Fatalf("charge on an old reference must complete the payment, got %s", p.Status)
	}
	if p.TransactionID != "tx-1" || len(p.SupersededRefs) != 1 || p.SupersededRefs[0] != "tx-2" {
		t.Fatalf("expected tx-1 adopted and tx-2 superseded, got %s %v", p.TransactionID, p.SupersededRefs)
	}
	if p.ApplyCallback("tx-2", "successful", nil, time.Now()) || p.TransactionID != "tx-1" {
		t.Fatal("completed payment must not switch references again")
	}
}
