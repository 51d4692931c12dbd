package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/services"
)

type UploadHandler struct {
	ingestService services.IngestService
	maxFileSize   int64
}

func NewUploadHandler(ingestService services.IngestService, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
		maxFileSize:   maxFileSize,
	}
}

// HandleUpload handles POST /upload
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file part",
		})
	}

	files, exists := form.File["file"]
	if !exists || len(files) == 0 {
		// Browsers send an unselected file input as a part with an empty
		// filename, which arrives as a plain form value.
		if _, sent := form.Value["file"]; sent {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No selected file",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file part",
		})
	}

	file := files[0]
	if file.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No selected file",
		})
	}

	if !services.AllowedFile(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid file type",
		})
	}

	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	candidate, err := h.ingestService.IngestUpload(c.UserContext(), file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidFileType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid file type",
			})
		case errors.Is(err, services.ErrExtractionFailed):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Failed to extract resume text",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to process resume: %v", err),
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(models.UploadResponse{
		Message: "File uploaded successfully!",
		Details: candidate.WithoutFullText(),
	})
}
