package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordkorb/nordkorb/internal/pkg/statistics"
)

// HandleAdminStats returns the cached shop statistics.
func HandleAdminStats(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()
	data := statistics.GetStatisticsData()

	return c.JSON(fiber.Map{
		"orders_today": data.TodayOrders,
		"orders_total": data.TotalOrders,
		"users_total":  data.TotalUsers,
		"active_plans": data.ActivePlans,
	})
}
