package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/resume-ranker/internal/bootstrap"
	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/handlers"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.Log.File, cfg.Server.Env == "production")
	defer sysLogger.Sync()

	ctx := context.Background()

	container, err := bootstrap.NewContainer(ctx, cfg, sysLogger)
	if err != nil {
		sysLogger.Error("main", "Failed to initialize services", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Ranker API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		// Leave room for multipart framing so the upload handler can report
		// oversize files itself.
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.SetupRoutes(app, container.UploadHandler, container.MatchHandler, container.CandidateHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		sysLogger.Info("main", "Shutting down server", nil)
		if err := app.Shutdown(); err != nil {
			sysLogger.Error("main", "Server forced to shutdown", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	sysLogger.Info("main", "Server starting", map[string]interface{}{
		"addr":    addr,
		"tier":    cfg.Ranking.Tier,
		"backend": cfg.Store.Backend,
	})

	if err := app.Listen(addr); err != nil {
		sysLogger.Error("main", "Failed to start server", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := container.Close(); err != nil {
		sysLogger.Warn("main", "Failed to release resources", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
