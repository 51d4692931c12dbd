package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// RankingResult is the outcome of one ranking call.
type RankingResult struct {
	Tier     ScoringTier
	Degraded bool
	// Excluded counts candidates dropped because a field could not be scored.
	Excluded   int
	Candidates []models.ScoredCandidate
}

type RankingService interface {
	Rank(ctx context.Context, jobDescription string, candidates []models.Candidate) (*RankingResult, error)
	Release()
}

type rankedField struct {
	name   string
	weight float64
	value  func(models.Candidate) string
}

type rankingService struct {
	scorer   SimilarityScorer
	fallback SimilarityScorer
	fields   []rankedField
	pool     *ants.Pool
	logger   logger.ILogger
}

func NewRankingService(scorer SimilarityScorer, weights config.Weights, concurrency int, log logger.ILogger) (RankingService, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking weights: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranking pool: %w", err)
	}

	all := []rankedField{
		{"skills", weights.Skills, func(c models.Candidate) string { return c.Skills }},
		{"experience", weights.Experience, func(c models.Candidate) string { return c.Experience }},
		{"certifications", weights.Certifications, func(c models.Candidate) string { return c.Certifications }},
		{"education", weights.Education, func(c models.Candidate) string { return c.Education }},
		{"university", weights.University, func(c models.Candidate) string { return c.University }},
		{"cgpa", weights.CGPA, func(c models.Candidate) string { return c.CGPA }},
	}
	var fields []rankedField
	for _, f := range all {
		if f.weight != 0 {
			fields = append(fields, f)
		}
	}

	return &rankingService{
		scorer:   scorer,
		fallback: NewLexicalScorer(),
		fields:   fields,
		pool:     pool,
		logger:   log,
	}, nil
}

// Rank implements RankingService. The input slice is not modified.
func (r *rankingService) Rank(ctx context.Context, jobDescription string, candidates []models.Candidate) (*RankingResult, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}

	result := &RankingResult{
		Tier:       r.scorer.Tier(),
		Candidates: []models.ScoredCandidate{},
	}
	if len(candidates) == 0 {
		return result, nil
	}

	scores, errs, err := r.scoreFields(ctx, r.scorer, jobDescription, candidates)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if r.scorer.Tier() == TierLexical {
			return nil, fmt.Errorf("failed to score candidates: %w", err)
		}

		r.logger.Warn("ranker", "Scoring tier unavailable, falling back to lexical", map[string]interface{}{
			"tier":  string(r.scorer.Tier()),
			"error": err.Error(),
		})
		scores, errs, err = r.scoreFields(ctx, r.fallback, jobDescription, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to score candidates: %w", err)
		}
		result.Tier = TierLexical
		result.Degraded = true
	}

	ranked := make([]models.ScoredCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		var aggregate float64
		fieldScores := make(map[string]float64, len(r.fields))
		var failed error

		for f, field := range r.fields {
			if errs[f][i] != nil {
				failed = errs[f][i]
				break
			}
			fieldScores[field.name] = scores[f][i]
			aggregate += field.weight * scores[f][i]
		}

		if failed != nil {
			result.Excluded++
			r.logger.Warn("ranker", "Candidate excluded from ranking", map[string]interface{}{
				"candidate": candidate.Name,
				"index":     i,
				"error":     failed.Error(),
			})
			continue
		}

		ranked = append(ranked, models.NewScoredCandidate(candidate, aggregate, round2(aggregate), fieldScores))
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].RawScore() > ranked[b].RawScore()
	})

	result.Candidates = ranked
	return result, nil
}

// scoreFields scores every weighted field as one batch, with the batches
// fanned out over the pool. Results are indexed [field][candidate].
func (r *rankingService) scoreFields(
	ctx context.Context,
	scorer SimilarityScorer,
	query string,
	candidates []models.Candidate,
) ([][]float64, [][]error, error) {
	scores := make([][]float64, len(r.fields))
	errs := make([][]error, len(r.fields))
	batchErrs := make([]error, len(r.fields))

	var wg sync.WaitGroup
	for f, field := range r.fields {
		texts := make([]string, len(candidates))
		for i, candidate := range candidates {
			texts[i] = field.value(candidate)
		}

		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			scores[f], errs[f], batchErrs[f] = scorer.ScoreBatch(ctx, query, texts)
		})
		if submitErr != nil {
			wg.Done()
			batchErrs[f] = fmt.Errorf("failed to submit scoring task: %w", submitErr)
		}
	}
	wg.Wait()

	if err := errors.Join(batchErrs...); err != nil {
		return nil, nil, err
	}
	return scores, errs, nil
}

// Release frees the scoring pool.
func (r *rankingService) Release() {
	r.pool.Release()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
