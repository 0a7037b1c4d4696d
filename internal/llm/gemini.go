package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kb-chat/backend/pkg/logger"
)

const defaultGeminiModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &Error{Provider: ProviderGemini, Err: err}
	}

	logger.Info("Gemini client initialized", zap.String("model", model))

	return &Gemini{client: client, model: model}, nil
}

// Generate returns the complete text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &Error{Provider: ProviderGemini, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &Error{Provider: ProviderGemini, Err: errors.New("empty completion")}
	}

	if resp.UsageMetadata != nil {
		logger.Debug("Gemini completion generated",
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}

	return text, nil
}
