package chapa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelstay/internal/app/policies"
	"travelstay/internal/domain/shared/money"
)

func checkoutRequest() policies.CheckoutRequest {
	return policies.CheckoutRequest{
		Amount:        money.Must(150050, "ETB"),
		Email:         "guest@example.com",
		FirstName:     "Abebe",
		LastName:      "Bikila",
		TransactionID: "tx-123",
	}
}

func TestInitiateSendsCheckoutRequest(t *testing.T) {
	t.Parallel()
	var got initializeRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.chapa.co/pay/abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "https://api.travelstay.test/", "https://travelstay.test", nil)
	session, err := c.Initiate(context.Background(), checkoutRequest())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if session.CheckoutURL != "https://checkout.chapa.co/pay/abc" {
		t.Fatalf("unexpected session %+v", session)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	want := initializeRequest{
		Amount:      "1500.50",
		Currency:    "ETB",
		Email:       "guest@example.com",
		FirstName:   "Abebe",
		LastName:    "Bikila",
		TxRef:       "tx-123",
		CallbackURL: "https://api.travelstay.test/api/v1/payments/webhook/",
		ReturnURL:   "https://travelstay.test/payment-success/",
	}
	if got != want {
		t.Fatalf("unexpected request\n got %+v\nwant %+v", got, want)
	}
}

func TestInitiateFailuresAreGatewayErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "server error", status: http.StatusInternalServerError, payload: `oops`},
		{name: "rejected", status: http.StatusOK, payload: `{"status":"failed","message":{"email":["invalid"]}}`},
		{name: "no checkout url", status: http.StatusOK, payload: `{"status":"success","data":{}}`},
		{name: "garbage", status: http.StatusOK, payload: `<html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.payload))
			}))
			defer srv.Close()
			c := NewClient(srv.URL, "sk-test", "", "", nil)
			if _, err := c.Initiate(context.Background(), checkoutRequest()); !errors.Is(err, policies.ErrGatewayUnavailable) {
				t.Fatalf("expected gateway error, got %v", err)
			}
		})
	}

	if _, err := NewClient("", "", "", "", nil).Initiate(context.Background(), checkoutRequest()); !errors.Is(err, policies.ErrGatewayUnavailable) {
		t.Fatalf("missing secret must fail, got %v", err)
	}
}
