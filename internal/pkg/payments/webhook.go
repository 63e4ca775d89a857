package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// CheckoutSessionEvent is a parsed checkout.session.completed webhook.
type CheckoutSessionEvent struct {
	EventID string
	Type    string
	Session CheckoutSession
}

// ParseCheckoutSessionEvent extracts the session from a webhook payload.
func ParseCheckoutSessionEvent(payload []byte) (*CheckoutSessionEvent, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object CheckoutSession `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	eventType := strings.TrimSpace(raw.Type)
	if eventType != "" && eventType != EventCheckoutSessionCompleted {
		return nil, fmt.Errorf("unsupported webhook event type: %s", eventType)
	}
	if strings.TrimSpace(raw.Data.Object.ID) == "" {
		return nil, errors.New("webhook payload missing session id")
	}
	if raw.Data.Object.OrderUUID() == "" {
		return nil, errors.New("webhook payload missing order reference")
	}

	return &CheckoutSessionEvent{
		EventID: strings.TrimSpace(raw.ID),
		Type:    eventType,
		Session: raw.Data.Object,
	}, nil
}
