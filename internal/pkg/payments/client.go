package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

const ProviderStripe = "stripe"

// StripeClient is a minimal checkout-session client for the payment
// provider. Only the read paths the fulfillment pipeline needs are
// implemented; checkout creation goes through the provider's hosted page.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// CheckoutSession is the subset of the provider session object the
// verification poll needs to converge on the webhook's trigger tuple.
type CheckoutSession struct {
	ID                string            `json:"id"`
	PaymentStatus     string            `json:"payment_status"`
	PaymentIntent     string            `json:"payment_intent"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetCheckoutSession fetches a checkout session by id.
func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + "/checkout/sessions/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout session fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out CheckoutSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("checkout session response missing id")
	}
	return &out, nil
}

// IsPaid reports whether the session completed payment on the provider side.
func (s *CheckoutSession) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(s.PaymentStatus), "paid")
}

// OrderUUID resolves the local order the session was created for.
// Checkout stores it in metadata and mirrors it as client_reference_id.
func (s *CheckoutSession) OrderUUID() string {
	if v := strings.TrimSpace(s.Metadata["order_uuid"]); v != "" {
		return v
	}
	return strings.TrimSpace(s.ClientReferenceID)
}

// PaymentRef is the idempotency anchor recorded on the order. The payment
// intent survives session expiry; the session id is the fallback.
func (s *CheckoutSession) PaymentRef() string {
	if v := strings.TrimSpace(s.PaymentIntent); v != "" {
		return v
	}
	return strings.TrimSpace(s.ID)
}
