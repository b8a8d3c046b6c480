// Package chapa initiates hosted checkout sessions with the Chapa gateway.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"travelstay/internal/app/policies"
)

const (
	DefaultEndpoint = "https://api.chapa.co/v1/transaction/initialize"
	webhookPath     = "/api/v1/payments/webhook/"
	returnPath      = "/payment-success/"
)

var errNotConfigured = errors.New("chapa: secret key not configured")

type Client struct {
	HTTP        *http.Client
	Endpoint    string
	SecretKey   string
	BackendURL  string
	FrontendURL string
	Logger      *slog.Logger
}

func NewClient(endpoint, secretKey, backendURL, frontendURL string, logger *slog.Logger) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		Endpoint:    endpoint,
		SecretKey:   secretKey,
		BackendURL:  strings.TrimRight(backendURL, "/"),
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Logger:      logger,
	}
}

type initializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// Initiate opens a checkout session. Transport failures, non-success replies
// and replies without a checkout URL all map to ErrGatewayUnavailable.
func (c *Client) Initiate(ctx context.Context, req policies.CheckoutRequest) (policies.CheckoutSession, error) {
	if c == nil || strings.TrimSpace(c.SecretKey) == "" {
		return policies.CheckoutSession{}, fmt.Errorf("%w: %v", policies.ErrGatewayUnavailable, errNotConfigured)
	}
	body, err := json.Marshal(initializeRequest{
		Amount:      req.Amount.Decimal(),
		Currency:    req.Amount.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TransactionID,
		CallbackURL: c.BackendURL + webhookPath,
		ReturnURL:   c.FrontendURL + returnPath,
	})
	if err != nil {
		return policies.CheckoutSession{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return policies.CheckoutSession{}, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.httpClient().Do(request)
	if err != nil {
		c.logError("chapa request failed", req.TransactionID, err)
		return policies.CheckoutSession{}, fmt.Errorf("%w: %v", policies.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: chapa returned status %d: %s", policies.ErrGatewayUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logError("chapa returned error", req.TransactionID, err)
		return policies.CheckoutSession{}, err
	}

	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logError("chapa decode failed", req.TransactionID, err)
		return policies.CheckoutSession{}, fmt.Errorf("%w: decode response: %v", policies.ErrGatewayUnavailable, err)
	}
	if !strings.EqualFold(out.Status, "success") || out.Data == nil || out.Data.CheckoutURL == "" {
		err := fmt.Errorf("%w: chapa rejected checkout: %v", policies.ErrGatewayUnavailable, out.Message)
		c.logError("chapa rejected checkout", req.TransactionID, err)
		return policies.CheckoutSession{}, err
	}
	return policies.CheckoutSession{CheckoutURL: out.Data.CheckoutURL}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logError(msg, txRef string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn(msg, "tx_ref", txRef, "error", err)
}

var _ policies.PaymentGateway = (*Client)(nil)
