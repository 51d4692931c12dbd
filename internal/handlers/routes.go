package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts the API under /api/v1 plus the root aliases used by the
// upload form.
func SetupRoutes(app *fiber.App, upload *UploadHandler, match *MatchHandler, candidates *CandidateHandler) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/upload", upload.HandleUpload)
	api.Post("/match", match.HandleMatch)
	api.Get("/candidates", candidates.HandleList)

	app.Post("/upload", upload.HandleUpload)
	app.Post("/match", match.HandleMatch)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Ranker API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/match",
				"GET /api/v1/candidates",
			},
		})
	})
}

// ErrorHandler renders unhandled errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
