package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/feedforge/feedforge_core/internal/api"
	"github.com/feedforge/feedforge_core/internal/cache"
	"github.com/feedforge/feedforge_core/internal/config"
	"github.com/feedforge/feedforge_core/internal/db"
	"github.com/feedforge/feedforge_core/internal/gtfs"
	"github.com/feedforge/feedforge_core/internal/logger"
	"github.com/feedforge/feedforge_core/internal/middleware"
	"github.com/feedforge/feedforge_core/internal/validator"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.ConsoleWriter(), logger.FileWriter(cfg.Logging.FilePath))

	log.Info("starting feedforge API server")

	pool, err := db.GetDB()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connection established")

	if _, err := cache.GetClient(); err != nil {
		// Redis only backs locks and the validation cache; the service
		// degrades without it.
		log.Warn("redis unavailable, import locking and report caching disabled", "error", err)
	} else {
		defer cache.Close()
		log.Info("redis connection established")
	}

	store := gtfs.NewPGStore(pool)
	importer := gtfs.NewImporter(store, log, cfg.Import.WorkDir, cache.NewImportLocks())
	vc := validator.NewClient(cfg.Validator.URL, cfg.Validator.Timeout)
	handlers := api.NewHandlers(store, importer, vc, cfg.Import.WorkDir, log)

	app := fiber.New(fiber.Config{
		AppName:      "FeedForge API",
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		BodyLimit:    cfg.Import.MaxUploadMB * 1024 * 1024,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", api.Health)

	v1 := app.Group("/v1", middleware.AuthMiddleware(pool))
	v1.Post("/projects/:id/import", handlers.ImportFeed)
	v1.Get("/projects/:id/export", handlers.ExportFeed)
	v1.Post("/projects/:id/validate", handlers.ValidateFeed)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%s", cfg.API.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down gracefully")
		if err := app.Shutdown(); err != nil {
			log.Error("error during shutdown", "error", err)
		}
	}()

	log.Info("server listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		log.Error("request failed", "path", c.Path(), "error", err)

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
