package notify

import (
	"strings"
	"testing"
)

func TestRenderAccountCreated(t *testing.T) {
	subject, body, err := render(Message{
		Kind:            KindAccountCreated,
		Email:           "jamie@example.com",
		Name:            "Jamie",
		InitialPassword: "temp-pass-123",
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(subject, "account") {
		t.Fatalf("subject = %q, want account mention", subject)
	}
	for _, want := range []string{"Jamie", "jamie@example.com", "temp-pass-123", "/login"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderPlanReady(t *testing.T) {
	subject, body, err := render(Message{
		Kind:  KindPlanReady,
		Email: "jamie@example.com",
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(subject, "ready") {
		t.Fatalf("subject = %q, want readiness mention", subject)
	}
	// No name on the message falls back to a generic salutation and the
	// body must never carry a credential.
	if !strings.Contains(body, "there") {
		t.Fatalf("body missing fallback salutation:\n%s", body)
	}
	if strings.Contains(body, "password") || strings.Contains(body, "Password") {
		t.Fatalf("returning-customer mail must not mention a password:\n%s", body)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, _, err := render(Message{Kind: "something_else"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
