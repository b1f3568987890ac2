package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"stitchkart/internal/log"
	"stitchkart/internal/services"
)

type AdminHandler struct {
	Quota *services.QuotaService
}

// QuotaUsage shows the current month's external-API counters.
func (h *AdminHandler) QuotaUsage(c *fiber.Ctx) error {
	now := time.Now()
	records, err := h.Quota.MonthRecords(now)
	if err != nil {
		log.Error(c, "admin.quota.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load quota records"})
	}
	return c.JSON(fiber.Map{
		"month":   services.MonthKey(now),
		"limit":   h.Quota.Limit,
		"records": records,
	})
}
