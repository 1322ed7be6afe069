package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/docs"
	"docvault/internal/config"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logging"
	"docvault/internal/otel"
	"docvault/internal/repository/memory"
	"docvault/internal/service"
	"docvault/internal/stats"
	"docvault/internal/storage"
)

// @title DocVault API
// @version 1.0
// @description Document upload, search, versioned metadata and approval workflow.
// @BasePath /
func main() {
	logger := logging.Default()

	// Load configuration from YAML/env (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config_invalid", err, nil)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("timezone_invalid", err, logging.Fields{"timezone": cfg.Timezone})
		loc = time.UTC
	}
	logger = logging.New(os.Stdout, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Error("tracing_init_failed", err, nil)
		os.Exit(1)
	}

	objStore, err := newStorage(cfg)
	if err != nil {
		logger.Error("storage_init_failed", err, logging.Fields{"backend": cfg.Storage.Backend})
		os.Exit(1)
	}

	// Metadata lives in memory for the lifetime of the process
	docRepo := memory.NewDocumentMemory()
	agg := stats.NewAggregator(docRepo, cfg.ActiveUsers)
	docSvc := service.NewDocumentService(objStore, docRepo,
		service.WithActor(cfg.MockActor),
		service.WithLogger(logger),
		service.WithAggregator(agg),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		stats.NewCollector(agg),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg, "/healthz")
	if err != nil {
		logger.Error("metrics_init_failed", err, nil)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWith(logger))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		host := c.Get("Host")
		if host == "" {
			host = cfg.AppHost
		}
		docs.SwaggerInfo.Host = host
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, objStore, docSvc)

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_started", logging.Fields{
			"addr":            addr,
			"storage_backend": cfg.Storage.Backend,
		})
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server_failed", err, nil)
		}
	case <-ctx.Done():
		logger.Info("shutdown_started", nil)
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server_shutdown_failed", err, nil)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error("tracing_shutdown_failed", err, nil)
	}
	logger.Info("shutdown_complete", nil)
}

func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMinIO:
		return storage.NewMinIO(cfg.MinIO)
	default:
		return storage.NewFS(cfg.Storage.Root)
	}
}
