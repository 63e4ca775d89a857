package controllers

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/PlanForgeHQ/PlanForge/app/models"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/constants"
)

// CheckoutRequest is the payload the quiz front end posts when the
// customer proceeds to payment.
type CheckoutRequest struct {
	Email    string                 `json:"email" validate:"required,email,max=200"`
	Name     string                 `json:"name" validate:"max=150"`
	DayCount int                    `json:"day_count" validate:"required,min=1,max=90"`
	Currency string                 `json:"currency" validate:"omitempty,len=3"`
	Answers  map[string]interface{} `json:"answers" validate:"required,min=1"`
}

// Per-duration pricing in minor units. Kept server-side so the client
// cannot dictate the price it pays.
var dayCountPricesMinor = map[int]int64{
	7:  1490,
	14: 2490,
	30: 3990,
	90: 7990,
}

func priceMinorFor(dayCount int) (int64, bool) {
	price, ok := dayCountPricesMinor[dayCount]
	return price, ok
}

// HandleCheckout snapshots the intake and creates the pending order the
// payment trigger will later reference. The intake row is immutable from
// here on; generation reads exactly what the customer answered.
func HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "detail": err.Error()})
	}
	price, ok := priceMinorFor(req.DayCount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported_day_count"})
	}

	payload, err := json.Marshal(req.Answers)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repos := repository.GetGlobalRepositories()

	intake := &models.Intake{PayloadJSON: string(payload)}
	if err := repos.Intake.Create(intake); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "intake_persist_failed"})
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	order := &models.Order{
		UUID:          models.NewOrderUUID(),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.Email)),
		CustomerName:  strings.TrimSpace(req.Name),
		DayCount:      req.DayCount,
		PriceMinor:    price,
		Currency:      currency,
		Status:        models.OrderStatusPending,
		IntakeID:      intake.ID,
	}
	if err := order.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "detail": err.Error()})
	}
	if err := repos.Order.Create(order); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_persist_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_uuid":  order.UUID,
		"price_minor": order.PriceMinor,
		"currency":    order.Currency,
		"day_count":   order.DayCount,
		"status_url":  strings.Replace(constants.APIOrderStatusRoute, ":uuid", order.UUID, 1),
	})
}
