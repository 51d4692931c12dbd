package repositories

import (
	"context"

	"alfredoptarigan/resume-ranker/internal/models"
)

// CandidateRepository is an append-only candidate store. There is no update or
// delete path.
type CandidateRepository interface {
	// Append persists one candidate.
	Append(ctx context.Context, candidate models.Candidate) error
	// LoadAll returns every candidate oldest first. An empty or missing store
	// yields an empty slice and no error.
	LoadAll(ctx context.Context) ([]models.Candidate, error)
}
