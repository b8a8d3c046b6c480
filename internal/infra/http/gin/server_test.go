package ginserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"travelstay/internal/app/bootstrap"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/policies"
	authsvc "travelstay/internal/app/services/auth"
	"travelstay/internal/infra/obs"
	"travelstay/internal/infra/security"
	"travelstay/internal/infra/storage/memory"
	"travelstay/internal/infra/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct{}

func (fakeGateway) Initiate(_ context.Context, req policies.CheckoutRequest) (policies.CheckoutSession, error) {
	return policies.CheckoutSession{CheckoutURL: "https://checkout.example/" + req.TransactionID}, nil
}

type fakeImages struct{ uploaded []string }

func (f *fakeImages) Upload(_ context.Context, img policies.ImageUpload) (string, error) {
	url := "https://cdn.example/" + img.ListingID + "/" + img.FileName
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) Delete(context.Context, string) error { return nil }

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, webhookSecret string) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens, err := security.NewJWTIssuer("test-secret", "travelstay", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	authService := &authsvc.Service{
		UoWFactory: store,
		Passwords:  security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:     tokens,
	}
	buses := bootstrap.NewBuses(bootstrap.Dependencies{
		UoWFactory:  store,
		Encoder:     outbox.JSONEventEncoder{},
		Gateway:     fakeGateway{},
		Images:      &fakeImages{},
		Idempotency: memory.NewIdempotencyStore(),
		Validator:   validation.New(),
	})
	router := NewRouter(nil, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{Service: authService},
		Listing:        ListingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Booking:        BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Reviews:        ReviewsHandler{Commands: buses.Commands, Queries: buses.Queries},
		Payment:        PaymentHandler{Commands: buses.Commands, Queries: buses.Queries, WebhookSecret: webhookSecret},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "long-enough-pass", "first_name": "Test", "last_name": "User",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
}

func (s *testServer) createListing(t *testing.T, token string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/listings", token, map[string]any{
		"title": "Lalibela rock view", "location": "Lalibela", "price_per_night": "100.00", "max_guests": 2, "listing_type": "villa",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[struct {
		ID string `json:"id"`
	}](t, rec).ID
}

type bookingBody struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	TotalPrice struct {
		Amount string `json:"amount"`
	} `json:"total_price"`
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")
	token := s.register(t, "host@example.com")

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["email"]; got != "host@example.com" {
		t.Fatalf("me email = %v", got)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "host@example.com", "password": "wrong-password"}), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "host@example.com", "password": "long-enough-pass"}), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "HOST@example.com", "password": "long-enough-pass"}), http.StatusConflict)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "x@example.com", "password": "short"}), http.StatusBadRequest)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")
	host := s.register(t, "host@example.com")
	guest := s.register(t, "guest@example.com")
	listingID := s.createListing(t, host)

	rec := s.do(t, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?check_in=2024-06-01&check_out=2024-06-04", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !decode[map[string]any](t, rec)["available"].(bool) {
		t.Fatalf("expected listing to be available")
	}

	payload := map[string]any{"listing_id": listingID, "check_in": "2024-06-01", "check_out": "2024-06-04", "number_of_guests": 2}
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings", "", payload), http.StatusUnauthorized)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", guest, payload, idempotencyHeader, "key-1")
	expectStatus(t, rec, http.StatusCreated)
	first := decode[bookingBody](t, rec)
	if first.TotalPrice.Amount != "300.00" || first.Status != "pending" {
		t.Fatalf("unexpected booking %+v", first)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", guest, payload, idempotencyHeader, "key-1")
	expectStatus(t, rec, http.StatusCreated)
	if replay := decode[bookingBody](t, rec); replay.ID != first.ID {
		t.Fatalf("replay created a new booking %s != %s", replay.ID, first.ID)
	}

	overlap := map[string]any{"listing_id": listingID, "check_in": "2024-06-03", "check_out": "2024-06-05", "number_of_guests": 1}
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings", guest, overlap), http.StatusConflict)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings", guest, map[string]any{"listing_id": listingID, "check_in": "2024-06-05", "check_out": "2024-06-05", "number_of_guests": 1}), http.StatusBadRequest)

	expectStatus(t, s.do(t, http.MethodPatch, "/api/v1/bookings/"+first.ID+"/status", guest, map[string]string{"status": "confirmed"}), http.StatusForbidden)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings/"+first.ID+"/pay/", guest, nil), http.StatusUnprocessableEntity)
	rec = s.do(t, http.MethodPatch, "/api/v1/bookings/"+first.ID+"/status", host, map[string]string{"status": "confirmed"})
	expectStatus(t, rec, http.StatusOK)
	if decode[bookingBody](t, rec).Status != "confirmed" {
		t.Fatalf("booking not confirmed: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/listings/"+listingID+"/bookings", host, nil)
	expectStatus(t, rec, http.StatusOK)
	if items := decode[map[string][]any](t, rec)["items"]; len(items) != 1 {
		t.Fatalf("expected one listing booking, got %d", len(items))
	}
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/listings/"+listingID+"/bookings", guest, nil), http.StatusForbidden)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+first.ID+"/pay", guest, nil)
	expectStatus(t, rec, http.StatusOK)
	txRef := decode[struct {
		TransactionID string `json:"transaction_id"`
		CheckoutURL   string `json:"checkout_url"`
	}](t, rec)
	if !strings.HasPrefix(txRef.TransactionID, "tx-") || !strings.HasSuffix(txRef.CheckoutURL, txRef.TransactionID) {
		t.Fatalf("unexpected payment %+v", txRef)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook/", "", map[string]string{"tx_ref": "tx-unknown", "status": "success"})
	expectStatus(t, rec, http.StatusNotFound)
	if got := decode[map[string]string](t, rec)["error"]; got != "payment not found" {
		t.Fatalf("unexpected webhook error %q", got)
	}
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/payments/webhook/", "", map[string]string{"status": "success"}), http.StatusBadRequest)

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook/", "", map[string]string{"tx_ref": txRef.TransactionID, "status": "success"})
		expectStatus(t, rec, http.StatusOK)
		ack := decode[map[string]any](t, rec)
		if ack["payment_status"] != "completed" || ack["changed"] != (i == 0) {
			t.Fatalf("delivery %d: unexpected ack %v", i, ack)
		}
	}

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/"+first.ID+"/payment", host, nil)
	expectStatus(t, rec, http.StatusOK)
	if decode[map[string]any](t, rec)["status"] != "completed" {
		t.Fatalf("payment not completed: %s", rec.Body.String())
	}
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings/"+first.ID+"/pay", guest, nil), http.StatusConflict)
}

func TestWebhookSignatureAndFormBodies(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "whsec")
	body := []byte("tx_ref=tx-missing&status=successful")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-chapa-signature", hex.EncodeToString(mac.Sum(nil)))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestListingsAndReviewsOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")
	host := s.register(t, "host@example.com")
	guest := s.register(t, "guest@example.com")
	listingID := s.createListing(t, host)

	expectStatus(t, s.do(t, http.MethodPut, "/api/v1/listings/"+listingID, guest, map[string]any{"title": "Mine now"}), http.StatusForbidden)
	rec := s.do(t, http.MethodPut, "/api/v1/listings/"+listingID, host, map[string]any{"price_per_night": "120.50"})
	expectStatus(t, rec, http.StatusOK)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="image"; filename="front.jpg"`)
	partHeader.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte("jpeg-bytes"))
	mw.WriteField("caption", "Front view")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID+"/images", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+host)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)
	image := decode[map[string]any](t, rec)
	if image["is_primary"] != true || image["caption"] != "Front view" {
		t.Fatalf("unexpected image %v", image)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/listings?location=lalibela&min_price=100", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if total := decode[map[string]any](t, rec)["total"]; total != float64(1) {
		t.Fatalf("search total = %v", total)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/listings/"+listingID+"/reviews", host, map[string]any{"rating": 5}), http.StatusForbidden)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/listings/"+listingID+"/reviews", guest, map[string]any{"rating": 0}), http.StatusBadRequest)

	expectStatus(t, s.do(t, http.MethodDelete, "/api/v1/listings/"+listingID, host, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/listings/"+listingID, "", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/listings/"+listingID, host, nil), http.StatusOK)
	rec = s.do(t, http.MethodGet, "/api/v1/listings", "", nil)
	if total := decode[map[string]any](t, rec)["total"]; total != float64(0) {
		t.Fatalf("inactive listing leaked into public search: %v", total)
	}
}

func TestStatusForMapsKinds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{authsvc.ErrInvalidToken, http.StatusUnauthorized},
		{policies.ErrGatewayUnavailable, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
