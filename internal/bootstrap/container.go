package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/handlers"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
	"alfredoptarigan/resume-ranker/internal/repositories"
	"alfredoptarigan/resume-ranker/internal/services"
)

// Container holds the wired services shared by the API server and the CLI.
type Container struct {
	Logger         logger.ILogger
	CandidateRepo  repositories.CandidateRepository
	IngestService  services.IngestService
	RankingService services.RankingService

	UploadHandler    *handlers.UploadHandler
	MatchHandler     *handlers.MatchHandler
	CandidateHandler *handlers.CandidateHandler

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config, log logger.ILogger) (*Container, error) {
	c := &Container{Logger: log}

	// 1. Candidate store
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := config.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		c.closers = append(c.closers, sqlDB.Close)
		c.CandidateRepo = repositories.NewGormCandidateRepository(db)
	default:
		repo, err := repositories.NewCSVCandidateRepository(cfg.Store.Path, log)
		if err != nil {
			return nil, err
		}
		c.CandidateRepo = repo
	}
	log.Info("bootstrap", "Candidate store ready", map[string]interface{}{
		"backend": cfg.Store.Backend,
	})

	// 2. Gemini, only when a feature needs it
	var gemini services.GeminiService
	needsGemini := cfg.Ranking.Tier == config.TierSemantic ||
		cfg.Extraction.NameStrategy == config.NameStrategyEntityRecognition
	if needsGemini {
		g, err := services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			EmbeddingModel: cfg.Gemini.EmbeddingModel,
			MaxRetries:     cfg.Worker.RetryMaxAttempts,
		}, log)
		if err != nil {
			c.Close()
			return nil, err
		}
		gemini = g
		log.Info("bootstrap", "Gemini initialized", map[string]interface{}{
			"model":           cfg.Gemini.Model,
			"embedding_model": cfg.Gemini.EmbeddingModel,
		})
	}

	// 3. Ingestion
	var recognizer services.EntityRecognizer
	if gemini != nil {
		recognizer = gemini
	}
	extractor, err := services.NewFieldExtractor(services.ExtractorOptions{
		NameStrategy:    cfg.Extraction.NameStrategy,
		SectionStrategy: cfg.Extraction.SectionStrategy,
		Vocabulary:      cfg.Vocabulary,
	}, recognizer, nil, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create field extractor: %w", err)
	}

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		c.Close()
		return nil, err
	}

	c.IngestService = services.NewIngestService(
		storageService,
		services.NewPDFParserService(),
		extractor,
		c.CandidateRepo,
		log,
	)

	// 4. Scoring
	var encoder services.Encoder
	if cfg.Ranking.Tier == config.TierSemantic {
		var store services.VectorStore
		if cfg.Qdrant.URL != "" {
			qdrantStore, err := services.NewQdrantService(
				cfg.Qdrant.URL,
				cfg.Qdrant.APIKey,
				cfg.Qdrant.Collection,
				cfg.Gemini.EmbeddingModel,
				cfg.Gemini.EmbeddingDimensions,
				log,
			)
			if err != nil {
				c.Close()
				return nil, err
			}
			if err := qdrantStore.InitCollection(ctx); err != nil {
				// The in-process cache still works without qdrant.
				log.Warn("bootstrap", "Qdrant unavailable, embeddings will not persist", map[string]interface{}{
					"error": err.Error(),
				})
				_ = qdrantStore.Close()
			} else {
				store = qdrantStore
				c.closers = append(c.closers, qdrantStore.Close)
			}
		}
		model := services.EmbeddingModel{
			Name:       cfg.Gemini.EmbeddingModel,
			Dimensions: int(cfg.Gemini.EmbeddingDimensions),
		}
		encoder = services.NewCachedEncoder(gemini, store, model, cfg.Gemini.EmbedCacheTTL, log)
	}

	scorer, err := services.NewSimilarityScorer(cfg.Ranking.Tier, encoder, cfg.Gemini.EmbedBatchSize, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	rankingService, err := services.NewRankingService(scorer, cfg.Ranking.Weights, cfg.Ranking.Concurrency, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.RankingService = rankingService
	c.closers = append(c.closers, func() error {
		rankingService.Release()
		return nil
	})
	log.Info("bootstrap", "Ranking service ready", map[string]interface{}{
		"tier":        cfg.Ranking.Tier,
		"concurrency": cfg.Ranking.Concurrency,
	})

	// 5. Handlers
	c.UploadHandler = handlers.NewUploadHandler(c.IngestService, cfg.Storage.MaxFileSize)
	c.MatchHandler = handlers.NewMatchHandler(c.CandidateRepo, c.RankingService)
	c.CandidateHandler = handlers.NewCandidateHandler(c.CandidateRepo)

	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
