package controllers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/repository"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/cache"
)

const orderStatusCacheTTL = 5 * time.Second

func orderStatusCacheKey(uuid string) string {
	return "order_status:" + uuid
}

// HandleOrderStatus is polled by the front end while it waits for the
// webhook to land. It never triggers fulfillment itself. Responses are
// cached for a few seconds to keep the poll off the database; completed
// fulfillment drops the cached entry so the flip shows up immediately.
func HandleOrderStatus(c *fiber.Ctx) error {
	uuid := strings.TrimSpace(c.Params("uuid"))
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_uuid_required"})
	}

	if cached, err := cache.Get(orderStatusCacheKey(uuid)); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).SendString(cached)
	}

	repos := repository.GetGlobalRepositories()
	order, err := repos.Order.GetByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	planReady := false
	if order.IsPaid() {
		if _, err := repos.UserPlan.GetByOrderID(order.ID); err == nil {
			planReady = true
		}
	}

	payload := fiber.Map{
		"order_uuid": order.UUID,
		"status":     order.Status,
		"plan_ready": planReady,
	}
	if raw, err := json.Marshal(payload); err == nil {
		_ = cache.Set(orderStatusCacheKey(uuid), raw, orderStatusCacheTTL)
	}
	return c.Status(fiber.StatusOK).JSON(payload)
}

// HandleOrderPlan returns the entitled plan document for an order.
func HandleOrderPlan(c *fiber.Ctx) error {
	uuid := strings.TrimSpace(c.Params("uuid"))
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_uuid_required"})
	}

	repos := repository.GetGlobalRepositories()
	order, err := repos.Order.GetByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	userPlan, err := repos.UserPlan.GetByOrderID(order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan_not_ready"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}
	if !userPlan.CoversDate(time.Now()) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "entitlement_expired"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).SendString(userPlan.DocumentJSON)
}

// HandleProfilePlans lists a profile's entitlements, newest first, and
// flags which one currently grants access.
func HandleProfilePlans(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email_required"})
	}

	repos := repository.GetGlobalRepositories()
	profile, err := repos.Profile.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "profile_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "profile_lookup_failed"})
	}

	userPlans, err := repos.UserPlan.ListByProfile(profile.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}

	now := time.Now()
	currentID := uint(0)
	if current, err := repos.UserPlan.GetActiveByProfile(profile.ID, now); err == nil {
		currentID = current.ID
	}

	items := make([]fiber.Map, 0, len(userPlans))
	for _, up := range userPlans {
		items = append(items, fiber.Map{
			"id":         up.ID,
			"order_id":   up.OrderID,
			"start_date": up.StartDate,
			"end_date":   up.EndDate,
			"status":     up.Status,
			"current":    up.ID == currentID && up.CoversDate(now),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profile_id": profile.ID, "plans": items})
}
