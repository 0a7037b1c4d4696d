package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/pkg/logger"
)

type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

type ChatHandler struct {
	orchestrator Answerer
}

func NewChatHandler(orchestrator Answerer) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
	}
}

// HandleChat answers a query grounded in the configured knowledge base.
// Every failure collapses to a generic 500 so retrieval and LLM internals
// never leak to end users.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	start := time.Now()

	var req struct {
		Query string `json:"query"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse chat request", zap.Error(err))
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return chatFailure(c)
	}

	answer, err := h.orchestrator.Answer(c.Context(), req.Query)
	if err != nil {
		logger.Error("Chat request failed", zap.Error(err))
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return chatFailure(c)
	}

	metrics.ChatTotal.WithLabelValues("success").Inc()
	metrics.ChatDuration.Observe(time.Since(start).Seconds())

	return c.JSON(fiber.Map{
		"answer": answer,
	})
}

func chatFailure(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
