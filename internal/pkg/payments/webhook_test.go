package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseCheckoutSessionEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"payment_status": "paid",
				"payment_intent": "pi_777",
				"amount_total": 1490,
				"currency": "eur",
				"client_reference_id": "ord-uuid-1",
				"metadata": { "order_uuid": "ord-uuid-1" }
			}
		}
	}`)

	evt, err := ParseCheckoutSessionEvent(payload)
	if err != nil {
		t.Fatalf("ParseCheckoutSessionEvent() error = %v", err)
	}
	if evt.EventID != "evt_123" {
		t.Fatalf("event id = %q, want evt_123", evt.EventID)
	}
	if evt.Session.OrderUUID() != "ord-uuid-1" {
		t.Fatalf("order uuid = %q, want ord-uuid-1", evt.Session.OrderUUID())
	}
	if evt.Session.PaymentRef() != "pi_777" {
		t.Fatalf("payment ref = %q, want pi_777", evt.Session.PaymentRef())
	}
	if !evt.Session.IsPaid() {
		t.Fatalf("expected session to report paid")
	}
}

func TestParseCheckoutSessionEvent_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "wrong type", payload: `{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"cs_1","client_reference_id":"o1"}}}`},
		{name: "missing session id", payload: `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"client_reference_id":"o1"}}}`},
		{name: "missing order reference", payload: `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`},
		{name: "malformed json", payload: `{"id":`},
	}

	for _, tt := range tests {
		if _, err := ParseCheckoutSessionEvent([]byte(tt.payload)); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestCheckoutSessionAccessors(t *testing.T) {
	s := &CheckoutSession{ID: "cs_1", PaymentStatus: "unpaid", ClientReferenceID: "ord-2"}
	if s.IsPaid() {
		t.Fatalf("unpaid session must not report paid")
	}
	if s.OrderUUID() != "ord-2" {
		t.Fatalf("order uuid fallback = %q, want ord-2", s.OrderUUID())
	}
	if s.PaymentRef() != "cs_1" {
		t.Fatalf("payment ref fallback = %q, want session id", s.PaymentRef())
	}

	s.Metadata = map[string]string{"order_uuid": "ord-3"}
	if s.OrderUUID() != "ord-3" {
		t.Fatalf("metadata must win over client_reference_id")
	}
}

func TestGetCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/sessions/cs_test_9" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_key" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_9","payment_status":"paid","payment_intent":"pi_9","amount_total":2490,"currency":"eur","client_reference_id":"ord-9"}`))
	}))
	defer srv.Close()

	client := &StripeClient{
		SecretKey:  "sk_test_key",
		APIBaseURL: srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	session, err := client.GetCheckoutSession(context.Background(), "cs_test_9")
	if err != nil {
		t.Fatalf("GetCheckoutSession() error = %v", err)
	}
	if session.AmountTotal != 2490 || session.PaymentRef() != "pi_9" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestGetCheckoutSession_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"No such checkout session"}}`))
	}))
	defer srv.Close()

	client := &StripeClient{
		SecretKey:  "sk_test_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	if _, err := client.GetCheckoutSession(context.Background(), "cs_missing"); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
	if _, err := client.GetCheckoutSession(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty session id")
	}

	client.SecretKey = ""
	if _, err := client.GetCheckoutSession(context.Background(), "cs_1"); err == nil {
		t.Fatalf("expected error without a configured secret")
	}
}
