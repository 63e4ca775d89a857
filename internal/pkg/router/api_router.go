package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/PlanForgeHQ/PlanForge/app/controllers"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Checkout and read endpoints are rate limited. The webhook is not:
	// the provider signs its requests and would retry on 429 forever.
	lim := limiter.New()
	v1.Post("/checkout", lim, controllers.HandleCheckout)
	v1.Post("/payment/verify", lim, controllers.HandleVerifyPayment)
	v1.Post("/payment/webhook", controllers.HandlePaymentWebhook)
	v1.Get("/orders/:uuid/status", lim, controllers.HandleOrderStatus)
	v1.Get("/orders/:uuid/plan", lim, controllers.HandleOrderPlan)
	v1.Get("/profiles/plans", lim, controllers.HandleProfilePlans)

	admin := v1.Group("/admin", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_USER", "admin"): env.GetEnv("ADMIN_PASSWORD", "admin"),
		},
	}))
	admin.Get("/orders", controllers.HandleAdminOrders)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
