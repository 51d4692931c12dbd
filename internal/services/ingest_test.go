package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

type ingestFixture struct {
	service   IngestService
	repo      *memoryRepository
	uploadDir string
}

func newIngestFixture(t *testing.T, parser PDFParserService) ingestFixture {
	t.Helper()
	uploadDir := filepath.Join(t.TempDir(), "uploads")
	storage := NewStorageService(uploadDir)
	require.NoError(t, storage.EnsureUploadDir())

	repo := &memoryRepository{}
	return ingestFixture{
		service:   NewIngestService(storage, parser, newLineExtractor(t, config.DefaultVocabulary()), repo, logger.NewNopLogger()),
		repo:      repo,
		uploadDir: uploadDir,
	}
}

func TestIngestUpload(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})

	candidate, err := f.service.IngestUpload(context.Background(), newFileHeader(t, "jane.pdf", []byte("%PDF")))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", candidate.Name)
	assert.Equal(t, "jane.doe@example.com", candidate.Email)
	require.Len(t, f.repo.candidates, 1)
	assert.Equal(t, candidate, f.repo.candidates[0])
}

func TestIngestUploadExtractionFailureWritesNothing(t *testing.T) {
	f := newIngestFixture(t, stubParser{err: ErrExtractionFailed})

	_, err := f.service.IngestUpload(context.Background(), newFileHeader(t, "scan.pdf", []byte("%PDF")))
	assert.ErrorIs(t, err, ErrExtractionFailed)

	assert.Empty(t, f.repo.candidates)
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged file is removed")
}

func TestIngestUploadWrapsParserErrors(t *testing.T) {
	f := newIngestFixture(t, stubParser{err: errors.New("malformed xref")})

	_, err := f.service.IngestUpload(context.Background(), newFileHeader(t, "bad.pdf", []byte("%PDF")))
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Empty(t, f.repo.candidates)
}

func TestIngestUploadRejectsInvalidInput(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})

	_, err := f.service.IngestUpload(context.Background(), newFileHeader(t, "resume.txt", []byte("text")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = f.service.IngestUpload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, f.repo.candidates)
}

func TestIngestUploadStoreFailure(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})
	f.repo.appendErr = errors.New("disk full")

	_, err := f.service.IngestUpload(context.Background(), newFileHeader(t, "jane.pdf", []byte("%PDF")))
	assert.ErrorContains(t, err, "disk full")
}

func TestIngestFile(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})

	candidate, err := f.service.IngestFile(context.Background(), "/resumes/jane.PDF")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", candidate.Name)

	_, err = f.service.IngestFile(context.Background(), "/resumes/jane.docx")
	assert.ErrorIs(t, err, ErrInvalidFileType)

	assert.Len(t, f.repo.candidates, 1)
}
