package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// embeddingNamespace roots the deterministic point IDs; each embedding model
// and dimension gets its own namespace beneath it.
var embeddingNamespace = uuid.MustParse("6f1c1d4e-5b0a-4c8e-9a43-2e7d8f6b3c21")

// VectorStore persists text embeddings so repeated rankings skip the encoder.
type VectorStore interface {
	InitCollection(ctx context.Context) error
	// Lookup returns the stored vectors for the texts it knows, keyed by text.
	Lookup(ctx context.Context, texts []string) (map[string][]float32, error)
	Store(ctx context.Context, texts []string, vectors [][]float32) error
	Close() error
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	model          string
	vectorSize     uint64
	namespace      uuid.UUID
	logger         logger.ILogger
}

// NewQdrantService stores vectors produced by model. Points written under
// another model or vector size are never returned by Lookup.
func NewQdrantService(urlStr, apiKey, collectionName, model string, vectorSize uint64, log logger.ILogger) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		model:          model,
		vectorSize:     vectorSize,
		namespace:      modelNamespace(model, vectorSize),
		logger:         log,
	}, nil
}

func modelNamespace(model string, vectorSize uint64) uuid.UUID {
	return uuid.NewSHA1(embeddingNamespace, []byte(fmt.Sprintf("%s/%d", model, vectorSize)))
}

func pointIDFor(namespace uuid.UUID, text string) string {
	return uuid.NewSHA1(namespace, []byte(text)).String()
}

// InitCollection implements VectorStore.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Info("qdrant", "Collection already exists", map[string]interface{}{
			"collection": q.collectionName,
		})
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant", "Collection created", map[string]interface{}{
		"collection":  q.collectionName,
		"vector_size": q.vectorSize,
	})
	return nil
}

// Lookup implements VectorStore.
func (q *qdrantService) Lookup(ctx context.Context, texts []string) (map[string][]float32, error) {
	found := make(map[string][]float32)
	if len(texts) == 0 {
		return found, nil
	}

	byID := make(map[string]string, len(texts))
	ids := make([]*qdrant.PointId, 0, len(texts))
	for _, text := range texts {
		id := pointIDFor(q.namespace, text)
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = text
		ids = append(ids, qdrant.NewID(id))
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collectionName,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get points: %w", err)
	}

	stale := 0
	for _, point := range points {
		text, ok := byID[point.GetId().GetUuid()]
		if !ok {
			continue
		}
		if values := storedVector(point, text, q.model, q.vectorSize); values != nil {
			found[text] = values
		} else {
			stale++
		}
	}

	if stale > 0 {
		q.logger.Warn("qdrant", "Ignoring stored vectors that do not match the embedding model", map[string]interface{}{
			"collection": q.collectionName,
			"model":      q.model,
			"count":      stale,
		})
	}

	return found, nil
}

// storedVector returns the point's vector when it was written for text by
// model with the expected size, or nil otherwise.
func storedVector(point *qdrant.RetrievedPoint, text, model string, size uint64) []float32 {
	payload := point.GetPayload()
	if stored, ok := payload["text"]; ok && stored.GetStringValue() != text {
		return nil
	}
	if stored, ok := payload["model"]; ok && stored.GetStringValue() != model {
		return nil
	}

	vector := point.GetVectors().GetVector()
	if vector == nil {
		return nil
	}
	values := vector.GetDense().GetData()
	if len(values) == 0 {
		values = vector.GetData()
	}
	if len(values) == 0 || uint64(len(values)) != size {
		return nil
	}
	return values
}

// Store implements VectorStore.
func (q *qdrantService) Store(ctx context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(texts))
	for i, text := range texts {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointIDFor(q.namespace, text)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"text":  text,
				"model": q.model,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

func (q *qdrantService) Close() error {
	return q.client.Close()
}
