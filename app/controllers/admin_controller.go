package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/PlanForgeHQ/PlanForge/app/models"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
)

// clampPageWindow normalizes the paging parameters. Negative offsets
// reset to the start, and out-of-range limits fall back to the default
// page size.
func clampPageWindow(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

// HandleAdminOrders is the ops read surface: paged order listing, newest
// first, or a point lookup by provider payment ref when investigating a
// specific charge.
func HandleAdminOrders(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	if ref := strings.TrimSpace(c.Query("payment_ref")); ref != "" {
		order, err := repos.Order.GetByPaymentRef(ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"orders": []models.Order{*order}, "total": 1})
	}

	offset, limit := clampPageWindow(c.QueryInt("offset", 0), c.QueryInt("limit", 50))

	orders, err := repos.Order.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}
	total, err := repos.Order.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_count_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}
