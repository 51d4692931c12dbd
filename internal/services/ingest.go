package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
	"alfredoptarigan/resume-ranker/internal/repositories"
)

// IngestService runs a résumé from upload to a stored Candidate.
type IngestService interface {
	IngestUpload(ctx context.Context, file *multipart.FileHeader) (models.Candidate, error)
	IngestFile(ctx context.Context, path string) (models.Candidate, error)
}

type ingestService struct {
	storage   StorageService
	parser    PDFParserService
	extractor FieldExtractor
	repo      repositories.CandidateRepository
	logger    logger.ILogger
}

func NewIngestService(
	storage StorageService,
	parser PDFParserService,
	extractor FieldExtractor,
	repo repositories.CandidateRepository,
	log logger.ILogger,
) IngestService {
	return &ingestService{
		storage:   storage,
		parser:    parser,
		extractor: extractor,
		repo:      repo,
		logger:    log,
	}
}

// IngestUpload implements IngestService. The staged copy is removed when no
// text can be extracted from it.
func (s *ingestService) IngestUpload(ctx context.Context, file *multipart.FileHeader) (models.Candidate, error) {
	if file == nil {
		return models.Candidate{}, fmt.Errorf("%w: no file provided", ErrInvalidInput)
	}

	filename, path, err := s.storage.SaveFile(file)
	if err != nil {
		return models.Candidate{}, err
	}

	text, err := s.parser.ExtractText(path)
	if err != nil {
		if delErr := s.storage.DeleteFile(filename); delErr != nil {
			s.logger.Warn("ingest", "Failed to remove staged file", map[string]interface{}{
				"file":  filename,
				"error": delErr.Error(),
			})
		}
		return models.Candidate{}, extractionError(err)
	}

	candidate, err := s.store(ctx, text)
	if err != nil {
		return models.Candidate{}, err
	}

	s.logger.Info("ingest", "Resume ingested", map[string]interface{}{
		"original_name": file.Filename,
		"staged_as":     filename,
		"candidate":     candidate.Name,
	})
	return candidate, nil
}

// IngestFile implements IngestService for a résumé already on disk.
func (s *ingestService) IngestFile(ctx context.Context, path string) (models.Candidate, error) {
	if !AllowedFile(path) {
		return models.Candidate{}, fmt.Errorf("%w: %q", ErrInvalidFileType, filepath.Ext(path))
	}

	text, err := s.parser.ExtractText(path)
	if err != nil {
		return models.Candidate{}, extractionError(err)
	}

	candidate, err := s.store(ctx, text)
	if err != nil {
		return models.Candidate{}, err
	}

	s.logger.Info("ingest", "Resume ingested", map[string]interface{}{
		"path":      path,
		"candidate": candidate.Name,
	})
	return candidate, nil
}

func (s *ingestService) store(ctx context.Context, text string) (models.Candidate, error) {
	candidate := s.extractor.Extract(ctx, text)

	if err := s.repo.Append(ctx, candidate); err != nil {
		return models.Candidate{}, fmt.Errorf("failed to store candidate: %w", err)
	}

	return candidate, nil
}

func extractionError(err error) error {
	if errors.Is(err, ErrExtractionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
}
