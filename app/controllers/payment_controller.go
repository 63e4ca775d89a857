package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/PlanForgeHQ/PlanForge/app/models"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/cache"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/fulfillment"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/payments"
)

const fulfillRequestTimeout = 5 * time.Minute

// webhookEventSettled reports whether a stored event row represents a
// finished processing attempt. Only settled events short-circuit a
// redelivery: an unsettled row means the earlier attempt crashed or
// failed retryably, and the provider's redelivery IS the retry channel,
// so the pipeline must run again.
func webhookEventSettled(event *models.PaymentWebhookEvent) bool {
	return event != nil && event.ProcessedAt != nil && event.ProcessingError == ""
}

// HandlePaymentWebhook receives provider webhooks. Deliveries are
// at-least-once: the event row short-circuits redeliveries of settled
// events, unsettled redeliveries re-run the pipeline, and the pipeline
// itself is safe against everything that slips through (distinct event
// ids for the same order, races with the verification poll).
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	signatureValid := payments.VerifyStripeWebhookSignature(
		rawBody, signature, secret, payments.DefaultSignatureTolerance, time.Now())

	event, parseErr := payments.ParseCheckoutSessionEvent(rawBody)
	eventID := ""
	eventType := ""
	if event != nil {
		eventID = event.EventID
		eventType = event.Type
	}

	repos := repository.GetGlobalRepositories()
	created, stored, err := repos.WebhookEvent.CreateIfNotExists(&models.PaymentWebhookEvent{
		Provider:        payments.ProviderStripe,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && webhookEventSettled(stored) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = repos.WebhookEvent.MarkProcessed(stored.ID, "invalid webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if parseErr != nil {
		// Unknown event types are acknowledged, not errored: the provider
		// should not redeliver traffic this service never handles.
		_ = repos.WebhookEvent.MarkProcessed(stored.ID, parseErr.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	ctx, cancel := context.WithTimeout(context.Background(), fulfillRequestTimeout)
	defer cancel()

	session := event.Session
	fulfillErr := fulfillmentService.Fulfill(ctx, session.OrderUUID(), session.PaymentRef(), session.AmountTotal, strings.ToUpper(session.Currency))
	if fulfillErr != nil {
		_ = repos.WebhookEvent.MarkProcessed(stored.ID, fulfillErr.Error())
	} else {
		_ = repos.WebhookEvent.MarkProcessed(stored.ID, "")
		_ = cache.Delete(orderStatusCacheKey(session.OrderUUID()))
	}
	return respondFulfillOutcome(c, fulfillErr, true)
}

// HandleVerifyPayment is the client-initiated poll after the provider
// redirects back. It resolves the checkout session to the same trigger
// tuple the webhook carries, so both paths converge on identical
// Fulfill semantics; whichever arrives first does the work.
func HandleVerifyPayment(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id_required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), fulfillRequestTimeout)
	defer cancel()

	session, err := paymentClient.GetCheckoutSession(ctx, req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "session_lookup_failed"})
	}
	if !session.IsPaid() {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "pending"})
	}

	fulfillErr := fulfillmentService.Fulfill(ctx, session.OrderUUID(), session.PaymentRef(), session.AmountTotal, strings.ToUpper(session.Currency))
	if fulfillErr == nil {
		_ = cache.Delete(orderStatusCacheKey(session.OrderUUID()))
	}
	return respondFulfillOutcome(c, fulfillErr, false)
}

// respondFulfillOutcome maps pipeline outcomes to transport semantics.
// Webhook callers acknowledge fatal errors (redelivery cannot fix a
// data-integrity bug) but ask for redelivery on retryable ones; the
// interactive poll surfaces both.
func respondFulfillOutcome(c *fiber.Ctx, err error, webhook bool) error {
	if err == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "status": "fulfilled"})
	}
	if fulfillment.IsFatal(err) {
		if webhook {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "error": "fulfillment_failed"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "fulfillment_failed"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "fulfillment_retry"})
}
