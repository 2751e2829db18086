package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/razorpay/razorpay-go/utils"

	"github.com/danatour/booking/logger"
)

// PaymentGatewayWrapper provides an interface for the external payment
// provider. The provider itself is opaque: the only contract is the amount
// and currency a session is initialized with, and the callback redirect it
// issues afterwards. The interface allows tests to mock gateway interactions.
type PaymentGatewayWrapper interface {
	CreatePaymentSession(ctx context.Context, req *PaymentSessionRequest) (*PaymentSessionResponse, error)
	CancelTransaction(ctx context.Context, gatewayOrderID string) error
	VerifyCallbackSignature(signature, payload string) bool
}

// PaymentSessionRequest initializes a gateway payment session.
type PaymentSessionRequest struct {
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Description   string `json:"description,omitempty"`
	ReturnURL     string `json:"return_url"`
}

// PaymentSessionResponse is the gateway's session handle. PaymentURL is the
// page the customer is sent to.
type PaymentSessionResponse struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	PaymentURL       string `json:"payment_url"`
	Status           string `json:"status"`
}

// PaymentGatewayClient implements PaymentGatewayWrapper over the provider's
// HTTP API.
type PaymentGatewayClient struct {
	BaseURL       string
	APIKey        string
	SecretKey     string
	WebhookSecret string
	HTTPClient    *http.Client
}

// NewPaymentGatewayClient creates and returns a new gateway client.
func NewPaymentGatewayClient(baseURL, apiKey, secretKey, webhookSecret string) *PaymentGatewayClient {
	return &PaymentGatewayClient{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		SecretKey:     secretKey,
		WebhookSecret: webhookSecret,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CreatePaymentSession creates a payment session at the gateway.
func (p *PaymentGatewayClient) CreatePaymentSession(ctx context.Context, req *PaymentSessionRequest) (*PaymentSessionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize gateway payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/sessions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to construct gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-client-id", p.APIKey)
	httpReq.Header.Set("x-client-secret", p.SecretKey)

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(b))
	}

	var session PaymentSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("invalid gateway response: %w", err)
	}
	if session.GatewayOrderID == "" {
		return nil, fmt.Errorf("gateway response missing order id")
	}
	return &session, nil
}

// CancelTransaction asks the gateway to void an order. Callers treat this as
// advisory: a failure is logged by the caller, never surfaced to the user.
func (p *PaymentGatewayClient) CancelTransaction(ctx context.Context, gatewayOrderID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/orders/"+gatewayOrderID+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("failed to construct cancel request: %w", err)
	}
	httpReq.Header.Set("x-client-id", p.APIKey)
	httpReq.Header.Set("x-client-secret", p.SecretKey)

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway cancel failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gateway cancel returned %d", resp.StatusCode)
	}
	logger.InfoLogger.Infof("Gateway order %s cancelled", gatewayOrderID)
	return nil
}

// VerifyCallbackSignature checks the HMAC signature the gateway attaches to
// its callbacks.
func (p *PaymentGatewayClient) VerifyCallbackSignature(signature, payload string) bool {
	return utils.VerifyWebhookSignature(payload, signature, p.WebhookSecret)
}
