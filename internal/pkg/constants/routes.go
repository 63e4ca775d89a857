package constants

// API routes
const (
	APICheckoutRoute       = "/api/v1/checkout"
	APIPaymentWebhookRoute = "/api/v1/payment/webhook"
	APIPaymentVerifyRoute  = "/api/v1/payment/verify"
	APIOrderStatusRoute    = "/api/v1/orders/:uuid/status"
	APIOrderPlanRoute      = "/api/v1/orders/:uuid/plan"
	APIProfilePlansRoute   = "/api/v1/profiles/plans"
)
