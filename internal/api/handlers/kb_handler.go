package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/internal/retrieval"
	"github.com/kb-chat/backend/pkg/logger"
)

const defaultKnowledgeBaseName = "New Knowledge Base"

type KnowledgeBaseClient interface {
	ListKnowledgeBases(ctx context.Context) (*retrieval.ListResult, error)
	CreateKnowledgeBase(ctx context.Context, req retrieval.UploadRequest) (json.RawMessage, error)
	GetKnowledgeBase(ctx context.Context, id string) (json.RawMessage, error)
}

type KnowledgeBaseHandler struct {
	client KnowledgeBaseClient
}

func NewKnowledgeBaseHandler(client KnowledgeBaseClient) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{
		client: client,
	}
}

func (h *KnowledgeBaseHandler) List(c *fiber.Ctx) error {
	result, err := h.client.ListKnowledgeBases(c.Context())
	if err != nil {
		return upstreamError(c, "Failed to list knowledge bases", err)
	}
	return sendRawJSON(c, result.Raw)
}

func (h *KnowledgeBaseHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		logger.Error("Failed to parse multipart form", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	name := defaultKnowledgeBaseName
	if values := form.Value["name"]; len(values) > 0 && values[0] != "" {
		name = values[0]
	}
	var description string
	if values := form.Value["description"]; len(values) > 0 {
		description = values[0]
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one file is required",
		})
	}

	req := retrieval.UploadRequest{
		Name:        name,
		Description: description,
	}

	var totalBytes int
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			logger.Error("Failed to open uploaded file", zap.Error(err), zap.String("filename", header.Filename))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			logger.Error("Failed to read uploaded file", zap.Error(err), zap.String("filename", header.Filename))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}

		totalBytes += len(data)
		req.Files = append(req.Files, retrieval.FileBlob{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	metrics.UploadBytes.Observe(float64(totalBytes))

	raw, err := h.client.CreateKnowledgeBase(c.Context(), req)
	if err != nil {
		return upstreamError(c, "Failed to create knowledge base", err)
	}
	return sendRawJSON(c, raw)
}

func (h *KnowledgeBaseHandler) Status(c *fiber.Ctx) error {
	raw, err := h.client.GetKnowledgeBase(c.Context(), c.Params("requestId"))
	if err != nil {
		return upstreamError(c, "Failed to get knowledge base status", err)
	}
	return sendRawJSON(c, raw)
}

func sendRawJSON(c *fiber.Ctx, raw json.RawMessage) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// upstreamError forwards the upstream status and body verbatim when present,
// matching the pass-through contract; otherwise it falls back to a 500.
func upstreamError(c *fiber.Ctx, msg string, err error) error {
	logger.Error(msg, zap.Error(err))

	var uerr *retrieval.Error
	if errors.As(err, &uerr) && uerr.StatusCode != 0 {
		if len(uerr.Body) > 0 {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(uerr.StatusCode).Send(uerr.Body)
		}
		return c.Status(uerr.StatusCode).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
