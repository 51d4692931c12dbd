package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/resume-ranker/internal/models"
)

type gormCandidateRepository struct {
	db *gorm.DB
}

// NewGormCandidateRepository stores candidates in the postgres candidates
// table. The schema contract is enforced by config.InitDatabase's AutoMigrate.
func NewGormCandidateRepository(db *gorm.DB) CandidateRepository {
	return &gormCandidateRepository{db: db}
}

// Append implements CandidateRepository.
func (r *gormCandidateRepository) Append(ctx context.Context, candidate models.Candidate) error {
	record := models.NewCandidateRecord(candidate.Normalize())
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// LoadAll implements CandidateRepository.
func (r *gormCandidateRepository) LoadAll(ctx context.Context) ([]models.Candidate, error) {
	var records []models.CandidateRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, record.Candidate())
	}
	return candidates, nil
}
