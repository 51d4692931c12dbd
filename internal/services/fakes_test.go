package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"alfredoptarigan/resume-ranker/internal/models"
)

const fakeDimensions = 4096

// bagOfWordsEncoder hashes lowercase tokens into a fixed-size count vector,
// so texts sharing words have a positive cosine similarity.
type bagOfWordsEncoder struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	// fail makes any batch containing a matching text return an error.
	fail func(text string) bool
	// dimensions overrides fakeDimensions when set.
	dimensions int
}

func (e *bagOfWordsEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.batches = append(e.batches, append([]string(nil), texts...))
	e.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if e.fail != nil && e.fail(text) {
			return nil, errors.New("encoder rejected input")
		}
		if e.dimensions > 0 {
			vectors[i] = hashTokens(text, e.dimensions)
		} else {
			vectors[i] = bagOfWords(text)
		}
	}
	return vectors, nil
}

func (e *bagOfWordsEncoder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func bagOfWords(text string) []float32 {
	return hashTokens(text, fakeDimensions)
}

func hashTokens(text string, dimensions int) []float32 {
	vector := make([]float32, dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:|")
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%uint32(dimensions)]++
	}
	return vector
}

type unavailableEncoder struct{}

func (unavailableEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrEncoderUnavailable
}

type fakeRecognizer struct {
	name string
	err  error
}

func (r fakeRecognizer) FirstPerson(ctx context.Context, text string) (string, error) {
	return r.name, r.err
}

type memoryRepository struct {
	mu         sync.Mutex
	candidates []models.Candidate
	appendErr  error
}

func (r *memoryRepository) Append(ctx context.Context, candidate models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.candidates = append(r.candidates, candidate)
	return nil
}

func (r *memoryRepository) LoadAll(ctx context.Context) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Candidate(nil), r.candidates...), nil
}

// stubParser returns the same canned result for every document.
type stubParser struct {
	text string
	err  error
}

func (p stubParser) ExtractText(path string) (string, error) {
	return p.text, p.err
}

// memoryVectorStore is an in-process VectorStore.
type memoryVectorStore struct {
	mu      sync.Mutex
	vectors map[string][]float32
	lookups int
}

func newMemoryVectorStore() *memoryVectorStore {
	return &memoryVectorStore{vectors: make(map[string][]float32)}
}

func (s *memoryVectorStore) InitCollection(ctx context.Context) error { return nil }

func (s *memoryVectorStore) Lookup(ctx context.Context, texts []string) (map[string][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	found := make(map[string][]float32)
	for _, text := range texts {
		if v, ok := s.vectors[text]; ok {
			found[text] = v
		}
	}
	return found, nil
}

func (s *memoryVectorStore) Store(ctx context.Context, texts []string, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, text := range texts {
		s.vectors[text] = vectors[i]
	}
	return nil
}

func (s *memoryVectorStore) Close() error { return nil }
