package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/api/handlers"
	"github.com/kb-chat/backend/internal/chat"
	"github.com/kb-chat/backend/internal/llm"
	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/internal/middleware/ratelimit"
	"github.com/kb-chat/backend/internal/middleware/security"
	"github.com/kb-chat/backend/internal/retrieval"
	"github.com/kb-chat/backend/pkg/config"
	"github.com/kb-chat/backend/pkg/logger"
)

type Dependencies struct {
	KnowledgeBases *handlers.KnowledgeBaseHandler
	Chat           *handlers.ChatHandler
}

// New assembles the fiber app shared by the standalone listener and the
// serverless handler.
func New(cfg *config.Config, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware())

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               logger.GetLogger(),
	})
	app.Use(limiter.Middleware())

	api := app.Group("/api")

	api.Get("/knowledgebase", deps.KnowledgeBases.List)
	api.Post("/knowledgebase", deps.KnowledgeBases.Create)
	api.Get("/knowledgebase/:requestId", deps.KnowledgeBases.Status)

	api.Post("/chat", deps.Chat.HandleChat)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	return app
}

// Build constructs every collaborator from config and returns the assembled
// app. The chat pipeline is wired even when its configuration is incomplete;
// the orchestrator then rejects chat requests while KB management keeps
// working.
func Build(ctx context.Context, cfg *config.Config) (*fiber.App, error) {
	retrievalClient := retrieval.NewClient(cfg.UpstreamBaseURL, cfg.APIKey)

	var generator llm.Generator
	missing := cfg.ChatMissing()
	if len(missing) == 0 {
		g, err := llm.New(ctx, llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLMAPIKey(),
		})
		if err != nil {
			return nil, err
		}
		generator = g
	} else {
		logger.Warn("Chat disabled until configuration is complete",
			zap.Strings("missing", missing),
		)
	}

	orchestrator := chat.NewOrchestrator(retrievalClient, generator, cfg.KnowledgeBaseID, missing)

	return New(cfg, Dependencies{
		KnowledgeBases: handlers.NewKnowledgeBaseHandler(retrievalClient),
		Chat:           handlers.NewChatHandler(orchestrator),
	}), nil
}
