package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Pinger, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(deps))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	docs := api.Group("/documents")
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Patch("/:id/status", UpdateStatus(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	api.Get("/stats", GetStats(docSvc))
	api.Get("/activities", RecentActivities(docSvc))
}

// HealthCheck pings the blob store.
//
// @Summary Readiness check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(deps Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
//
// @Summary Liveness probe
// @Tags ops
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
