package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

func TestIngestWorkerProcessesQueue(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})
	worker := NewIngestWorker(f.service, 3, 10, logger.NewNopLogger())
	worker.Start(context.Background())

	var paths []string
	for i := 0; i < 6; i++ {
		paths = append(paths, fmt.Sprintf("resume_%d.pdf", i))
	}
	paths = append(paths, "notes.txt")

	for _, path := range paths {
		require.True(t, worker.Enqueue(path))
	}
	worker.Stop()

	var ok, failed []string
	for result := range worker.Results() {
		if result.Err != nil {
			failed = append(failed, result.Path)
			continue
		}
		assert.Equal(t, "Jane Doe", result.Candidate.Name)
		ok = append(ok, result.Path)
	}
	sort.Strings(ok)

	assert.Equal(t, paths[:6], ok)
	assert.Equal(t, []string{"notes.txt"}, failed)
	assert.Len(t, f.repo.candidates, 6)

	assert.False(t, worker.Enqueue("late.pdf"))
}

func TestIngestWorkerCancelledContext(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewIngestWorker(f.service, 1, 1, logger.NewNopLogger())
	worker.Start(ctx)
	require.True(t, worker.Enqueue("resume.pdf"))
	worker.Stop()

	result := <-worker.Results()
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Empty(t, f.repo.candidates)
}

func TestIngestWorkerEnqueueRacingStop(t *testing.T) {
	f := newIngestFixture(t, stubParser{text: sampleResume})
	worker := NewIngestWorker(f.service, 2, 1, logger.NewNopLogger())
	worker.Start(context.Background())

	drained := make(chan int)
	go func() {
		n := 0
		for range worker.Results() {
			n++
		}
		drained <- n
	}()

	var accepted sync.WaitGroup
	var mu sync.Mutex
	enqueued := 0
	for i := 0; i < 20; i++ {
		accepted.Add(1)
		go func(i int) {
			defer accepted.Done()
			if worker.Enqueue(fmt.Sprintf("resume_%d.pdf", i)) {
				mu.Lock()
				enqueued++
				mu.Unlock()
			}
		}(i)
	}

	assert.NotPanics(t, worker.Stop)
	accepted.Wait()

	assert.Equal(t, enqueued, <-drained, "every accepted file produces a result")
	assert.False(t, worker.Enqueue("late.pdf"))
}
