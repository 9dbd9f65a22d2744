package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the model used for generated history.
const DefaultGeminiModel = "gemini-2.0-flash"

const historyPrompt = "Write a brief historical overview of %s. Include key historical events, " +
	"cultural significance, and important landmarks. Keep it informative but concise, around 200 words."

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient constructs a GeminiClient for the named model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: client.GenerativeModel(model)}, nil
}

// GenerateContent returns the concatenated text parts of the first candidate.
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// HistoryWriter writes a short history of a location, falling back to a
// templated sentence when generation fails or returns nothing.
type HistoryWriter struct {
	gen TextGenerator
	log *zap.Logger
}

// NewHistoryWriter wraps gen; a nil gen always yields the fallback.
func NewHistoryWriter(gen TextGenerator, log *zap.Logger) *HistoryWriter {
	return &HistoryWriter{gen: gen, log: log}
}

// FallbackHistory is the sentence used when no history could be generated.
func FallbackHistory(locationName string) string {
	return fmt.Sprintf("%s has a rich history and cultural heritage that spans many centuries.", locationName)
}

// History returns generated text for locationName; it never fails.
func (h *HistoryWriter) History(ctx context.Context, locationName string) string {
	if h.gen == nil {
		return FallbackHistory(locationName)
	}
	text, err := h.gen.GenerateContent(ctx, fmt.Sprintf(historyPrompt, locationName))
	if err != nil {
		h.log.Warn("history generation failed", zap.String("location", locationName), zap.Error(err))
		return FallbackHistory(locationName)
	}
	if strings.TrimSpace(text) == "" {
		return FallbackHistory(locationName)
	}
	return strings.TrimSpace(text)
}
