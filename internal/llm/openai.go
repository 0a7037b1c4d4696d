package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/pkg/logger"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	// A Gemini model id slips through when only LLM_PROVIDER was switched.
	if model == "" || model == defaultGeminiModel {
		model = defaultOpenAIModel
	}

	logger.Info("OpenAI client initialized", zap.String("model", model))

	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Generate returns the content of the first choice.
func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", &Error{Provider: ProviderOpenAI, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Provider: ProviderOpenAI, Err: errors.New("no choices returned")}
	}

	logger.Debug("OpenAI completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
