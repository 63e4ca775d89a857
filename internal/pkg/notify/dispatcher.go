package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/mailer"
)

const (
	// KindAccountCreated welcomes a first-time customer and carries the
	// minted temporary credential.
	KindAccountCreated = "account_created"
	// KindPlanReady tells a returning customer the new plan is live.
	KindPlanReady = "plan_ready"
)

// Message is one customer notification.
type Message struct {
	Kind            string `json:"kind"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	InitialPassword string `json:"initial_password,omitempty"`
}

// Dispatcher delivers customer notifications. Callers treat delivery as
// best-effort: a returned error is logged, never retried inline.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// MailDispatcher renders and sends notifications synchronously via SMTP.
type MailDispatcher struct{}

func NewMailDispatcher() *MailDispatcher {
	return &MailDispatcher{}
}

func (d *MailDispatcher) Send(ctx context.Context, msg Message) error {
	_ = ctx
	subject, body, err := render(msg)
	if err != nil {
		return err
	}
	return mailer.SendMail(msg.Email, subject, body)
}

func render(msg Message) (string, string, error) {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = "there"
	}
	appURL := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "https://planforge.app"), "/")

	switch msg.Kind {
	case KindAccountCreated:
		subject := "Your PlanForge account and your plan are ready"
		body := fmt.Sprintf(
			"<h2>Welcome, %s!</h2>"+
				"<p>Your personalized plan is ready. We created an account for you:</p>"+
				"<p>Login: <b>%s</b><br>Temporary password: <b>%s</b></p>"+
				"<p>Please change the password after your first login.</p>"+
				"<p><a href=\"%s/login\">Open your plan</a></p>",
			name, msg.Email, msg.InitialPassword, appURL,
		)
		return subject, body, nil
	case KindPlanReady:
		subject := "Your new PlanForge plan is ready"
		body := fmt.Sprintf(
			"<h2>Welcome back, %s!</h2>"+
				"<p>Your new personalized plan is ready in your account.</p>"+
				"<p><a href=\"%s/login\">Open your plan</a></p>",
			name, appURL,
		)
		return subject, body, nil
	default:
		return "", "", fmt.Errorf("unknown notification kind: %s", msg.Kind)
	}
}
