package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// Encoder maps texts to dense vectors, one per input, in input order.
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingModel identifies the vectors an Encoder produces. Vectors from
// different models or sizes are never mixed.
type EmbeddingModel struct {
	Name       string
	Dimensions int
}

func (m EmbeddingModel) key() string {
	return fmt.Sprintf("%s/%d", m.Name, m.Dimensions)
}

type cachedEncoder struct {
	inner     Encoder
	store     VectorStore
	model     EmbeddingModel
	keyPrefix string
	cache     *cache.Cache
	logger    logger.ILogger
}

// NewCachedEncoder wraps inner with an in-process TTL cache and, when store
// is non-nil, a persistent vector store consulted before the encoder. Stored
// vectors whose length differs from model.Dimensions are re-encoded.
func NewCachedEncoder(inner Encoder, store VectorStore, model EmbeddingModel, ttl time.Duration, log logger.ILogger) Encoder {
	return &cachedEncoder{
		inner:     inner,
		store:     store,
		model:     model,
		keyPrefix: model.key() + "\x00",
		cache:     cache.New(ttl, 2*ttl),
		logger:    log,
	}
}

// Embed implements Encoder.
func (e *cachedEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resolved := make(map[string][]float32, len(texts))

	var missing []string
	for _, text := range texts {
		if _, ok := resolved[text]; ok {
			continue
		}
		if cached, ok := e.cache.Get(e.keyPrefix + text); ok {
			resolved[text] = cached.([]float32)
			continue
		}
		resolved[text] = nil
		missing = append(missing, text)
	}

	if len(missing) > 0 && e.store != nil {
		stored, err := e.store.Lookup(ctx, missing)
		if err != nil {
			e.logger.Warn("encoder", "Vector store lookup failed", map[string]interface{}{
				"error": err.Error(),
				"texts": len(missing),
			})
		} else {
			remaining := missing[:0]
			stale := 0
			for _, text := range missing {
				vector, ok := stored[text]
				if ok && e.model.Dimensions > 0 && len(vector) != e.model.Dimensions {
					stale++
					ok = false
				}
				if ok {
					resolved[text] = vector
					e.cache.SetDefault(e.keyPrefix+text, vector)
					continue
				}
				remaining = append(remaining, text)
			}
			missing = remaining

			if stale > 0 {
				e.logger.Warn("encoder", "Re-encoding stored vectors with the wrong dimensions", map[string]interface{}{
					"model": e.model.key(),
					"count": stale,
				})
			}
		}
	}

	if len(missing) > 0 {
		encoded, err := e.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(encoded) != len(missing) {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(encoded), len(missing))
		}

		for i, text := range missing {
			resolved[text] = encoded[i]
			e.cache.SetDefault(e.keyPrefix+text, encoded[i])
		}

		if e.store != nil {
			if err := e.store.Store(ctx, missing, encoded); err != nil {
				e.logger.Warn("encoder", "Vector store write failed", map[string]interface{}{
					"error": err.Error(),
					"texts": len(missing),
				})
			}
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = resolved[text]
	}

	return vectors, nil
}
