package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/llm"
	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/internal/retrieval"
	"github.com/kb-chat/backend/pkg/config"
	"github.com/kb-chat/backend/pkg/logger"
)

// TopK is the number of chunks requested from the retrieval service. It is a
// design constant, not a request parameter.
const TopK = 5

// NoEvidenceAnswer is returned when retrieval yields nothing usable. Callers
// rely on this exact string to tell "no evidence" from a model answer.
const NoEvidenceAnswer = "No relevant information found."

var ErrEmptyQuery = errors.New("query must not be empty")

type Retriever interface {
	QueryEmbeddings(ctx context.Context, kbID, query string, topK int) ([]retrieval.Chunk, error)
}

// Orchestrator sequences retrieval, prompt composition, and generation.
// It performs no retries; failures propagate to the HTTP facade.
type Orchestrator struct {
	retriever Retriever
	generator llm.Generator
	kbID      string
	missing   []string
}

// NewOrchestrator wires the chat pipeline. missing lists the configuration
// names still required before Answer can run; generator may be nil while any
// are missing.
func NewOrchestrator(retriever Retriever, generator llm.Generator, kbID string, missing []string) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		kbID:      kbID,
		missing:   missing,
	}
}

func (o *Orchestrator) Answer(ctx context.Context, query string) (string, error) {
	if len(o.missing) > 0 {
		return "", &config.MissingError{Names: o.missing}
	}
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	chatID := uuid.New().String()

	logger.Info("Answering chat query",
		zap.String("chat_id", chatID),
		zap.Int("query_length", len(query)),
	)

	chunks, err := o.retriever.QueryEmbeddings(ctx, o.kbID, query, TopK)
	if err != nil {
		return "", fmt.Errorf("query embeddings: %w", err)
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		contents = append(contents, chunk.Content)
	}

	metrics.RetrievedChunks.Observe(float64(len(contents)))

	if len(contents) == 0 {
		logger.Info("No evidence retrieved", zap.String("chat_id", chatID))
		return NoEvidenceAnswer, nil
	}

	prompt := ComposePrompt(query, contents)

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	logger.Info("Chat query answered",
		zap.String("chat_id", chatID),
		zap.Int("chunks", len(contents)),
		zap.Int("answer_length", len(answer)),
	)

	return answer, nil
}
