package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/repositories"
	"alfredoptarigan/resume-ranker/internal/services"
)

type MatchHandler struct {
	candidateRepo  repositories.CandidateRepository
	rankingService services.RankingService
}

func NewMatchHandler(
	candidateRepo repositories.CandidateRepository,
	rankingService services.RankingService,
) *MatchHandler {
	return &MatchHandler{
		candidateRepo:  candidateRepo,
		rankingService: rankingService,
	}
}

// HandleMatch handles POST /match
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Job description is required",
		})
	}

	ctx := c.UserContext()

	candidates, err := h.candidateRepo.LoadAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to load candidates: %v", err),
		})
	}

	result, err := h.rankingService.Rank(ctx, req.JobDescription, candidates)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Job description is required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to rank candidates: %v", err),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.MatchResponse{
		Message:    "Resumes ranked successfully!",
		Tier:       string(result.Tier),
		Degraded:   result.Degraded,
		Excluded:   result.Excluded,
		Candidates: result.Candidates,
	})
}
