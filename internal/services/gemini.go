package services

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// maxEmbedChars keeps each input under the embedding model's token limit.
const maxEmbedChars = 40000

type GeminiService interface {
	Encoder
	EntityRecognizer
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

type GeminiOptions struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxRetries     int
}

type geminiService struct {
	client        *genai.Client
	modelName     string
	embedModel    string
	maxRetries    int
	promptBuilder *PromptBuilder
	logger        logger.ILogger
}

func NewGeminiService(ctx context.Context, opts GeminiOptions, log logger.ILogger) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	return &geminiService{
		client:        client,
		modelName:     opts.Model,
		embedModel:    opts.EmbeddingModel,
		maxRetries:    opts.MaxRetries,
		promptBuilder: NewPromptBuilder(),
		logger:        log,
	}, nil
}

// Embed implements Encoder with a single batched EmbedContent call.
func (g *geminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		if len(text) > maxEmbedChars {
			text = truncateRunes(text, maxEmbedChars)
		}
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embeddings: %v", ErrEncoderUnavailable, err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding for input %d", i)
		}
		vectors[i] = embedding.Values
	}

	return vectors, nil
}

// FirstPerson implements EntityRecognizer.
func (g *geminiService) FirstPerson(ctx context.Context, text string) (string, error) {
	prompt := g.promptBuilder.BuildPersonEntityPrompt(text)

	response, err := g.GenerateTextWithRetry(ctx, prompt, 0, g.maxRetries)
	if err != nil {
		return "", fmt.Errorf("failed to recognize person entity: %w", err)
	}

	var result struct {
		Person string `json:"person"`
	}
	if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal entity response: %w", err)
	}

	return result.Person, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  1024,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	return text, nil
}

// GenerateTextWithRetry implements GeminiService.
func (g *geminiService) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := g.GenerateText(ctx, prompt, temperature)
		if err == nil {
			return result, nil
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < maxRetries {
			g.logger.Warn("gemini", "Generation attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
