package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "movie-catalog/docs"
	"movie-catalog/internal/config"
	"movie-catalog/internal/database"
	"movie-catalog/internal/handlers"
	"movie-catalog/internal/metrics"
	"movie-catalog/internal/repository"
	"movie-catalog/internal/routes"
	"movie-catalog/internal/services"
	"movie-catalog/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"
)

// @title Movie Catalog API
// @version 1.0
// @description Read-mostly catalog of movies and genres: listing, filtering, title search, genre recommendations and movie creation

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

func main() {
	config.LoadEnvFile()

	cfg := config.Load()

	log := config.NewLogger(cfg.Server.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Warnf("Configuration validation warning: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		}
	}()

	movieRepo := repository.NewMovieRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	catalogService := services.NewCatalogService(movieRepo, genreRepo, log)
	catalogHandler := handlers.NewCatalogHandler(catalogService, log)

	app := fiber.New(fiber.Config{
		AppName:               "Movie Catalog API",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: false,
		ErrorHandler:          customErrorHandler(log),
	})

	setupMiddleware(app)

	app.Get("/health", healthCheckHandler(db))
	app.Get("/metrics", metrics.Handler())

	// Swagger documentation
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	routes.Setup(app, catalogHandler)

	go gracefulShutdown(app, log)

	log.Infof("Movie Catalog API starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}
}

func setupMiddleware(app *fiber.App) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	app.Use(metrics.Middleware())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	}))
}

func healthCheckHandler(db *database.Database) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "healthy"
		if err := db.HealthCheck(); err != nil {
			dbStatus = "unhealthy"
		}

		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "movie-catalog",
			"version":   "1.0.0",
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func customErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     code,
			"request_id": c.Locals("requestid"),
		}).Error("Request error")

		return utils.ErrorResponse(c, code, err.Error())
	}
}

func gracefulShutdown(app *fiber.App, log *logrus.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}

	log.Info("Server shutdown complete")
}
