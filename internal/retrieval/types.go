package retrieval

import (
	"encoding/json"
	"fmt"
)

// KnowledgeBase is the normalized summary of an upstream knowledge base.
// The upstream owns the full schema; only the fields this service reads are
// decoded, everything else rides along in the raw payload.
type KnowledgeBase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ListResult keeps both the normalized summaries and the verbatim upstream
// JSON, which the facade forwards unchanged.
type ListResult struct {
	KnowledgeBases []KnowledgeBase
	Raw            json.RawMessage
}

// Chunk is one retrieved excerpt. Rank is the position in the upstream
// top-K ordering.
type Chunk struct {
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// FileBlob is one uploaded file held in memory for the life of a request.
type FileBlob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadRequest describes a knowledge base to create. Files must not be
// empty when the request is submitted.
type UploadRequest struct {
	Name        string
	Description string
	Files       []FileBlob
}

// decodeList accepts either {"knowledgeBases": [...]} or a bare array.
func decodeList(raw []byte) ([]KnowledgeBase, error) {
	var wrapped struct {
		KnowledgeBases []KnowledgeBase `json:"knowledgeBases"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.KnowledgeBases != nil {
		return wrapped.KnowledgeBases, nil
	}

	var bare []KnowledgeBase
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("unrecognized knowledge base list shape")
}
