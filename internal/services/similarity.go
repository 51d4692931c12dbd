package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

type ScoringTier string

const (
	TierLexical  ScoringTier = config.TierLexical
	TierSemantic ScoringTier = config.TierSemantic
)

// SimilarityScorer rates how well a candidate text matches a job description.
// Higher is better.
type SimilarityScorer interface {
	Tier() ScoringTier
	Score(ctx context.Context, query, text string) (float64, error)
	// ScoreBatch scores every text against query. The per-text errors slice
	// has one entry per text; a non-nil trailing error means the tier itself
	// is unavailable and no scores are returned.
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, []error, error)
}

func NewSimilarityScorer(tier string, encoder Encoder, batchSize int, log logger.ILogger) (SimilarityScorer, error) {
	switch ScoringTier(tier) {
	case TierLexical:
		return NewLexicalScorer(), nil
	case TierSemantic:
		if encoder == nil {
			return nil, fmt.Errorf("semantic scoring tier requires an encoder")
		}
		return NewSemanticScorer(encoder, batchSize, log), nil
	default:
		return nil, fmt.Errorf("unknown scoring tier: %s", tier)
	}
}

func isBlankField(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || text == models.NotFound
}

// Lexical tier

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "has": true, "have": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "our": true, "that": true,
	"the": true, "their": true, "this": true, "to": true, "we": true, "will": true,
	"with": true, "you": true, "your": true, "who": true, "must": true, "should": true,
	"can": true, "looking": true, "seeking": true, "required": true, "preferred": true,
}

type lexicalScorer struct{}

func NewLexicalScorer() SimilarityScorer {
	return &lexicalScorer{}
}

func (l *lexicalScorer) Tier() ScoringTier {
	return TierLexical
}

// Keywords returns the distinct lowercase keywords of a job description in
// order of first appearance.
func Keywords(query string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		token := strings.TrimFunc(field, isEdgePunct)
		if len([]rune(token)) < 2 || stopwords[token] || seen[token] {
			continue
		}
		if !strings.ContainsFunc(token, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func lexicalScore(keywords []string, text string) float64 {
	if isBlankField(text) {
		return 0
	}
	lower := strings.ToLower(text)
	var hits int
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			hits++
		}
	}
	return float64(hits)
}

func (l *lexicalScorer) Score(ctx context.Context, query, text string) (float64, error) {
	return lexicalScore(Keywords(query), text), nil
}

func (l *lexicalScorer) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, []error, error) {
	keywords := Keywords(query)
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = lexicalScore(keywords, text)
	}
	return scores, make([]error, len(texts)), nil
}

// Semantic tier

type semanticScorer struct {
	encoder   Encoder
	batchSize int
	logger    logger.ILogger
}

func NewSemanticScorer(encoder Encoder, batchSize int, log logger.ILogger) SimilarityScorer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &semanticScorer{
		encoder:   encoder,
		batchSize: batchSize,
		logger:    log,
	}
}

func (s *semanticScorer) Tier() ScoringTier {
	return TierSemantic
}

func (s *semanticScorer) Score(ctx context.Context, query, text string) (float64, error) {
	scores, errs, err := s.ScoreBatch(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], errs[0]
}

func (s *semanticScorer) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, []error, error) {
	scores := make([]float64, len(texts))
	errs := make([]error, len(texts))

	var indexes []int
	var pending []string
	for i, text := range texts {
		if isBlankField(text) {
			continue
		}
		indexes = append(indexes, i)
		pending = append(pending, text)
	}

	if len(pending) == 0 {
		return scores, errs, nil
	}

	queryVectors, err := s.encoder.Embed(ctx, []string{query})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to encode job description: %w", ErrEncoderUnavailable, err)
	}
	if len(queryVectors) != 1 {
		return nil, nil, fmt.Errorf("%w: encoder returned %d vectors for the job description", ErrEncoderUnavailable, len(queryVectors))
	}
	queryVector := queryVectors[0]

	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		vectors, err := s.encoder.Embed(ctx, batch)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("encoder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			s.logger.Warn("similarity", "Batch encoding failed, retrying texts individually", map[string]interface{}{
				"batch_size": len(batch),
				"error":      err.Error(),
			})
			vectors = make([][]float32, len(batch))
			for j, text := range batch {
				single, err := s.encoder.Embed(ctx, []string{text})
				if err == nil && len(single) != 1 {
					err = fmt.Errorf("encoder returned %d vectors for 1 text", len(single))
				}
				if err != nil {
					errs[indexes[start+j]] = fmt.Errorf("failed to encode text: %w", err)
					continue
				}
				vectors[j] = single[0]
			}
		}

		for j, vector := range vectors {
			idx := indexes[start+j]
			if errs[idx] != nil {
				continue
			}
			score, err := cosineSimilarity(queryVector, vector)
			if err != nil {
				errs[idx] = err
				continue
			}
			scores[idx] = score
		}
	}

	return scores, errs, nil
}

var errDimensionMismatch = errors.New("vector dimension mismatch")

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", errDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
