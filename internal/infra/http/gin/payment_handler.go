package ginserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gin "github.com/gin-gonic/gin"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	paymentsapp "travelstay/internal/app/handlers/payments"
	"travelstay/internal/app/queries"
	domainpayments "travelstay/internal/domain/payments"
)

const maxWebhookBodyBytes = 1 << 20

var signatureHeaders = []string{"Chapa-Signature", "x-chapa-signature"}

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	// WebhookSecret enables HMAC-SHA256 verification of callback bodies.
	WebhookSecret string
	Logger        *slog.Logger
}

func (h PaymentHandler) Initiate(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := paymentsapp.InitiatePaymentCommand{
		ActorID:         p.ID,
		BookingID:       c.Param("id"),
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[paymentsapp.InitiatePaymentCommand, *dto.Payment](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentHandler) Get(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	query := paymentsapp.GetPaymentQuery{ActorID: p.ID, BookingID: c.Param("id")}
	result, err := queries.Ask[paymentsapp.GetPaymentQuery, dto.Payment](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Webhook receives gateway callbacks. It needs no bearer token; when a
// secret is configured the body must carry a valid signature instead.
func (h PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	if h.WebhookSecret != "" && !validSignature(h.WebhookSecret, body, c.Request.Header) {
		if h.Logger != nil {
			h.Logger.Warn("webhook signature rejected", "remote", c.ClientIP())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	txRef, status := parseCallback(c.ContentType(), body, c.Request.URL.Query())
	cmd := paymentsapp.HandleWebhookCommand{TransactionID: txRef, Status: status, Payload: body}
	ack, err := commands.Dispatch[paymentsapp.HandleWebhookCommand, *dto.WebhookAck](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if errors.Is(err, domainpayments.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// parseCallback extracts the transaction reference and status from a JSON or
// form encoded callback, falling back to query parameters.
func parseCallback(contentType string, body []byte, query url.Values) (string, string) {
	fields := map[string]string{}
	if strings.Contains(contentType, "json") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err == nil {
			for k, v := range raw {
				if s, ok := v.(string); ok {
					fields[k] = s
				}
			}
		}
	} else if form, err := url.ParseQuery(string(body)); err == nil {
		for k := range form {
			fields[k] = form.Get(k)
		}
	}
	for k := range query {
		if _, exists := fields[k]; !exists {
			fields[k] = query.Get(k)
		}
	}
	txRef := fields["tx_ref"]
	if txRef == "" {
		txRef = fields["trx_ref"]
	}
	return strings.TrimSpace(txRef), strings.TrimSpace(fields["status"])
}

func validSignature(secret string, body []byte, header http.Header) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)
	for _, name := range signatureHeaders {
		got, err := hex.DecodeString(strings.TrimSpace(header.Get(name)))
		if err == nil && len(got) > 0 && hmac.Equal(got, expected) {
			return true
		}
	}
	return false
}

var _ PaymentHTTP = PaymentHandler{}
