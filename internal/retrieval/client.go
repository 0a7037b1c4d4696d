package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/pkg/logger"
)

const listTimeout = 8 * time.Second

// Client talks to the upstream knowledge base service. Every request carries
// the retrieval API key in the x-api-key header.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	listTimeout time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{},
		listTimeout: listTimeout,
	}
}

// ListKnowledgeBases fetches all knowledge bases. The upstream may wrap the
// summaries in a {"knowledgeBases": ...} object or return a bare array; both
// are normalized while the raw payload is kept for pass-through.
func (c *Client) ListKnowledgeBases(ctx context.Context) (*ListResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	raw, err := c.do(ctx, http.MethodGet, "/knowledgebase", "", nil, "listKnowledgeBases")
	if err != nil {
		return nil, err
	}

	kbs, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("decode knowledge base list: %w", err)
	}

	logger.Debug("Knowledge bases listed", zap.Int("count", len(kbs)))

	return &ListResult{KnowledgeBases: kbs, Raw: raw}, nil
}

// CreateKnowledgeBase forwards a multipart upload to the upstream. Each file
// part preserves the original filename and MIME type, in order. No client
// deadline is set; large uploads run until the caller cancels.
func (c *Client) CreateKnowledgeBase(ctx context.Context, req UploadRequest) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("name", req.Name); err != nil {
		return nil, fmt.Errorf("write name field: %w", err)
	}
	if req.Description != "" {
		if err := mw.WriteField("description", req.Description); err != nil {
			return nil, fmt.Errorf("write description field: %w", err)
		}
	}

	for _, file := range req.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write file part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	logger.Info("Forwarding knowledge base upload",
		zap.String("name", req.Name),
		zap.Int("files", len(req.Files)),
		zap.Int("bytes", buf.Len()),
	)

	raw, err := c.do(ctx, http.MethodPost, "/knowledgebase", mw.FormDataContentType(), &buf, "createKnowledgeBase")
	if err != nil {
		return nil, err
	}

	// Best-effort decode for logging only; the schema is upstream-owned.
	var created KnowledgeBase
	if err := json.Unmarshal(raw, &created); err == nil && created.ID != "" {
		logger.Info("Knowledge base created",
			zap.String("id", created.ID),
			zap.String("status", created.Status),
		)
	}

	return raw, nil
}

// GetKnowledgeBase returns the current summary for id, used for readiness
// polling.
func (c *Client) GetKnowledgeBase(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/knowledgebase/"+url.PathEscape(id), "", nil, "getKnowledgeBase")
}

type embeddingsRequest struct {
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	Query           string `json:"query"`
	TopK            int    `json:"topK"`
}

// QueryEmbeddings runs a top-K similarity lookup against kbID and returns the
// chunks in upstream order. The result may be empty.
func (c *Client) QueryEmbeddings(ctx context.Context, kbID, query string, topK int) ([]Chunk, error) {
	body, err := json.Marshal(embeddingsRequest{
		KnowledgeBaseID: kbID,
		Query:           query,
		TopK:            topK,
	})
	if err != nil {
		return nil, fmt.Errorf("encode embeddings request: %w", err)
	}

	path := "/knowledgebase/" + url.PathEscape(kbID) + "/embeddings"
	raw, err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), "queryEmbeddings")
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Embeddings []Chunk `json:"embeddings"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}

	logger.Debug("Embeddings retrieved",
		zap.String("knowledge_base_id", kbID),
		zap.Int("chunks", len(decoded.Embeddings)),
	)

	return decoded.Embeddings, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, op string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		uerr := wrapTransport(op, err)
		metrics.UpstreamRequests.WithLabelValues(op, uerr.Kind.String()).Inc()
		return nil, uerr
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		uerr := wrapTransport(op, err)
		metrics.UpstreamRequests.WithLabelValues(op, uerr.Kind.String()).Inc()
		return nil, uerr
	}

	if resp.StatusCode >= http.StatusBadRequest {
		kind := classifyStatus(resp.StatusCode)
		metrics.UpstreamRequests.WithLabelValues(op, kind.String()).Inc()
		return nil, &Error{
			Kind:       kind,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       payload,
		}
	}

	metrics.UpstreamRequests.WithLabelValues(op, "success").Inc()
	return payload, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
