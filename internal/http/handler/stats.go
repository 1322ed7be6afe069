package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
	"docvault/internal/stats"
)

// GetStats returns the dashboard counters.
//
// @Summary Dashboard statistics
// @Tags stats
// @Produce json
// @Success 200 {object} model.Stats
// @Router /api/stats [get]
func GetStats(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := docSvc.Stats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}

// RecentActivities returns the newest history entries across all documents.
//
// @Summary Recent activity feed
// @Tags stats
// @Produce json
// @Param limit query int false "number of entries" default(5)
// @Success 200 {array} model.Activity
// @Failure 400 {object} errorPayload
// @Router /api/activities [get]
func RecentActivities(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := stats.DefaultActivityLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			}
			limit = n
		}

		items, err := docSvc.RecentActivities(c.UserContext(), limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}
