package services

import (
	"context"
	"sync"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// IngestResult reports the outcome for one file handed to the worker.
type IngestResult struct {
	Path      string
	Candidate models.Candidate
	Err       error
}

// IngestWorker ingests queued résumé files with a fixed number of goroutines.
type IngestWorker interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(path string) bool
	Results() <-chan IngestResult
}

type ingestWorker struct {
	ingest      IngestService
	jobQueue    chan string
	results     chan IngestResult
	concurrency int
	wg          sync.WaitGroup
	stopOnce    sync.Once
	stopChan    chan struct{}
	// queueMu is held for reading by senders and for writing while the
	// queue is closed, so no send can race the close.
	queueMu sync.RWMutex
	logger  logger.ILogger
}

func NewIngestWorker(ingest IngestService, concurrency, queueSize int, log logger.ILogger) IngestWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &ingestWorker{
		ingest:      ingest,
		jobQueue:    make(chan string, queueSize),
		results:     make(chan IngestResult, queueSize),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		logger:      log,
	}
}

// Start implements IngestWorker.
func (w *ingestWorker) Start(ctx context.Context) {
	w.logger.Info("worker", "Starting ingest worker", map[string]interface{}{
		"concurrency": w.concurrency,
	})

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop closes the queue, waits for queued files to finish and then closes
// the results channel.
func (w *ingestWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.queueMu.Lock()
		close(w.jobQueue)
		w.queueMu.Unlock()

		w.wg.Wait()
		close(w.results)
		w.logger.Info("worker", "Ingest worker stopped", nil)
	})
}

// Enqueue implements IngestWorker. It blocks while the queue is full and
// reports false once the worker is stopping.
func (w *ingestWorker) Enqueue(path string) bool {
	w.queueMu.RLock()
	defer w.queueMu.RUnlock()

	select {
	case <-w.stopChan:
	default:
		select {
		case w.jobQueue <- path:
			return true
		case <-w.stopChan:
		}
	}

	w.logger.Warn("worker", "Worker stopped, cannot enqueue file", map[string]interface{}{
		"path": path,
	})
	return false
}

// Results implements IngestWorker.
func (w *ingestWorker) Results() <-chan IngestResult {
	return w.results
}

func (w *ingestWorker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for path := range w.jobQueue {
		result := IngestResult{Path: path}

		if err := ctx.Err(); err != nil {
			result.Err = err
		} else {
			result.Candidate, result.Err = w.ingest.IngestFile(ctx, path)
		}

		if result.Err != nil {
			w.logger.Error("worker", "Failed to ingest file", map[string]interface{}{
				"worker": workerID,
				"path":   path,
				"error":  result.Err.Error(),
			})
		} else {
			w.logger.Debug("worker", "Ingested file", map[string]interface{}{
				"worker":    workerID,
				"path":      path,
				"candidate": result.Candidate.Name,
			})
		}

		w.results <- result
	}
}
