// Package handler is the serverless entrypoint. Function platforms invoke
// Handler per request; the fiber app is built once and reused across warm
// invocations, sharing the exact pipeline of cmd/api.
package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/joho/godotenv"

	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/internal/server"
	"github.com/kb-chat/backend/pkg/config"
	"github.com/kb-chat/backend/pkg/logger"
)

var (
	setupOnce sync.Once
	serve     http.HandlerFunc
	setupErr  error
)

func Handler(w http.ResponseWriter, r *http.Request) {
	setupOnce.Do(func() {
		godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			setupErr = err
			return
		}

		if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
			setupErr = err
			return
		}

		metrics.Init()

		app, err := server.Build(context.Background(), cfg)
		if err != nil {
			setupErr = err
			return
		}

		serve = adaptor.FiberApp(app)
	})

	if setupErr != nil {
		http.Error(w, setupErr.Error(), http.StatusInternalServerError)
		return
	}

	serve(w, r)
}
