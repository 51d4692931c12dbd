package repositories

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

const (
	logModule      = "candidate_store"
	lockRetryDelay = 10 * time.Millisecond
	utf8BOM        = "\ufeff"
)

// csvCandidateRepository keeps candidates in a flat CSV file whose first row is
// models.CandidateHeader.
//
// Writers hold the process mutex and an exclusive advisory lock on a sidecar
// lock file for the whole check-header / reset / append sequence. Readers hold
// the shared variants for the whole read, so LoadAll always sees a snapshot
// that contains only complete appends.
type csvCandidateRepository struct {
	path     string
	lockPath string
	mu       sync.RWMutex
	logger   logger.ILogger
}

func NewCSVCandidateRepository(path string, log logger.ILogger) (CandidateRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &csvCandidateRepository{
		path:     path,
		lockPath: path + ".lock",
		logger:   log,
	}, nil
}

// Append implements CandidateRepository.
func (r *csvCandidateRepository) Append(ctx context.Context, candidate models.Candidate) error {
	candidate = candidate.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockFile(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open candidate store: %w", err)
	}
	defer f.Close()

	state, err := inspectStore(f)
	if err != nil {
		return err
	}

	if state == storeCorrupted {
		r.logger.Warn(logModule, "Candidate store corrupted, resetting", map[string]interface{}{
			"path":  r.path,
			"error": ErrSchemaCorruption.Error(),
		})
		if err := f.Truncate(0); err != nil {
			return fmt.Errorf("failed to reset candidate store: %w", err)
		}
		state = storeEmpty
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek candidate store: %w", err)
	}

	// A previous writer that died mid-row leaves no trailing newline.
	if state == storeMissingNewline {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to repair candidate store: %w", err)
		}
	}

	w := csv.NewWriter(f)
	if state == storeEmpty {
		if err := w.Write(models.CandidateHeader); err != nil {
			return fmt.Errorf("failed to write store header: %w", err)
		}
	}
	if err := w.Write(candidate.Row()); err != nil {
		return fmt.Errorf("failed to write candidate: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush candidate store: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync candidate store: %w", err)
	}

	r.logger.Info(logModule, "Candidate saved", map[string]interface{}{
		"name":           candidate.Name,
		"header_written": state == storeEmpty,
	})
	return nil
}

// LoadAll implements CandidateRepository.
func (r *csvCandidateRepository) LoadAll(ctx context.Context) ([]models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unlock, err := r.lockFile(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Candidate{}, nil
		}
		return nil, fmt.Errorf("failed to open candidate store: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []models.Candidate{}, nil
	}
	if err != nil || !isExpectedHeader(header) {
		r.logger.Warn(logModule, "Candidate store header mismatch, treating store as empty", map[string]interface{}{
			"path":  r.path,
			"error": ErrSchemaCorruption.Error(),
		})
		return []models.Candidate{}, nil
	}

	candidates := []models.Candidate{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.logger.Warn(logModule, "Skipping unreadable candidate row", map[string]interface{}{
					"line":  parseErr.Line,
					"error": err.Error(),
				})
				continue
			}
			return nil, fmt.Errorf("failed to read candidate store: %w", err)
		}

		candidate, err := models.CandidateFromRow(row)
		if err != nil {
			line, _ := reader.FieldPos(0)
			r.logger.Warn(logModule, "Skipping malformed candidate row", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (r *csvCandidateRepository) lockFile(ctx context.Context, exclusive bool) (func(), error) {
	fl := flock.New(r.lockPath)

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock candidate store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock candidate store: lock not acquired")
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			r.logger.Warn(logModule, "Failed to release store lock", map[string]interface{}{"error": err.Error()})
		}
		fl.Close()
	}, nil
}

type storeState int

const (
	storeEmpty storeState = iota
	storeValid
	storeMissingNewline
	storeCorrupted
)

// inspectStore classifies the store without moving past what it reads.
func inspectStore(f *os.File) (storeState, error) {
	info, err := f.Stat()
	if err != nil {
		return storeCorrupted, fmt.Errorf("failed to stat candidate store: %w", err)
	}
	if info.Size() == 0 {
		return storeEmpty, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return storeCorrupted, fmt.Errorf("failed to seek candidate store: %w", err)
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil || !isExpectedHeader(header) {
		return storeCorrupted, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return storeCorrupted, fmt.Errorf("failed to read candidate store: %w", err)
	}
	if last[0] != '\n' {
		return storeMissingNewline, nil
	}

	return storeValid, nil
}

func isExpectedHeader(header []string) bool {
	if len(header) > 0 {
		header = slices.Clone(header)
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return slices.Equal(header, models.CandidateHeader)
}
