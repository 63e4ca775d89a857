package controllers

import (
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/fulfillment"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/payments"
)

var (
	fulfillmentService *fulfillment.Service
	paymentClient      *payments.StripeClient
)

// Setup injects the shared service instances used by the handlers. Must
// be called once during application boot, after database and cache setup.
func Setup(svc *fulfillment.Service, client *payments.StripeClient) {
	fulfillmentService = svc
	paymentClient = client
}
