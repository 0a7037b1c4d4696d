package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key")
}

func TestListKnowledgeBases_WrappedShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		if r.URL.Path != "/knowledgebase" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"knowledgeBases":[{"id":"kb-1","name":"Docs","status":"ready"}]}`)
	}))
	defer upstream.Close()

	result, err := newTestClient(upstream.URL).ListKnowledgeBases(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.KnowledgeBases) != 1 || result.KnowledgeBases[0].ID != "kb-1" {
		t.Errorf("unexpected summaries: %+v", result.KnowledgeBases)
	}
	if string(result.Raw) != `{"knowledgeBases":[{"id":"kb-1","name":"Docs","status":"ready"}]}` {
		t.Errorf("raw payload not preserved: %s", result.Raw)
	}
}

func TestListKnowledgeBases_BareArrayShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"kb-2","name":"Other"}]`)
	}))
	defer upstream.Close()

	result, err := newTestClient(upstream.URL).ListKnowledgeBases(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.KnowledgeBases) != 1 || result.KnowledgeBases[0].ID != "kb-2" {
		t.Errorf("unexpected summaries: %+v", result.KnowledgeBases)
	}
}

func TestListKnowledgeBases_EmptyWrapped(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"knowledgeBases":[]}`)
	}))
	defer upstream.Close()

	result, err := newTestClient(upstream.URL).ListKnowledgeBases(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.KnowledgeBases) != 0 {
		t.Errorf("expected no summaries, got %+v", result.KnowledgeBases)
	}
}

func TestListKnowledgeBases_Timeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	client.listTimeout = 20 * time.Millisecond

	_, err := client.ListKnowledgeBases(context.Background())

	var uerr *Error
	if !errors.As(err, &uerr) || uerr.Kind != KindTimeout {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestCreateKnowledgeBase_MultipartFidelity(t *testing.T) {
	var gotName, gotDescription string
	var gotFilenames, gotContentTypes, gotPayloads []string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("upstream could not parse multipart: %v", err)
		}
		gotName = r.MultipartForm.Value["name"][0]
		gotDescription = r.MultipartForm.Value["description"][0]
		for _, header := range r.MultipartForm.File["files"] {
			gotFilenames = append(gotFilenames, header.Filename)
			gotContentTypes = append(gotContentTypes, header.Header.Get("Content-Type"))
			f, err := header.Open()
			if err != nil {
				t.Fatalf("open part: %v", err)
			}
			data, _ := io.ReadAll(f)
			f.Close()
			gotPayloads = append(gotPayloads, string(data))
		}
		io.WriteString(w, `{"id":"kb-9","name":"Docs","status":"pending"}`)
	}))
	defer upstream.Close()

	raw, err := newTestClient(upstream.URL).CreateKnowledgeBase(context.Background(), UploadRequest{
		Name:        "Docs",
		Description: "team",
		Files: []FileBlob{
			{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hello")},
			{Filename: "b.pdf", ContentType: "application/pdf", Data: []byte{0x25, 0x50, 0x44, 0x46}},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if gotName != "Docs" || gotDescription != "team" {
		t.Errorf("fields not forwarded: name=%q description=%q", gotName, gotDescription)
	}
	if len(gotFilenames) != 2 || gotFilenames[0] != "a.txt" || gotFilenames[1] != "b.pdf" {
		t.Errorf("filenames not preserved in order: %v", gotFilenames)
	}
	if gotContentTypes[0] != "text/plain" || gotContentTypes[1] != "application/pdf" {
		t.Errorf("MIME types not preserved: %v", gotContentTypes)
	}
	if gotPayloads[0] != "hello" || gotPayloads[1] != "%PDF" {
		t.Errorf("payloads not preserved: %v", gotPayloads)
	}
	if string(raw) != `{"id":"kb-9","name":"Docs","status":"pending"}` {
		t.Errorf("raw response not preserved: %s", raw)
	}
}

func TestCreateKnowledgeBase_OmitsEmptyDescription(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, present := r.MultipartForm.Value["description"]; present {
			t.Error("empty description must not be sent")
		}
		io.WriteString(w, `{"id":"kb-3"}`)
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream.URL).CreateKnowledgeBase(context.Background(), UploadRequest{
		Name:  "NoDesc",
		Files: []FileBlob{{Filename: "f.txt", ContentType: "text/plain", Data: []byte("x")}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
}

func TestGetKnowledgeBase(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/knowledgebase/kb-7" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		io.WriteString(w, `{"id":"kb-7","status":"ready"}`)
	}))
	defer upstream.Close()

	raw, err := newTestClient(upstream.URL).GetKnowledgeBase(context.Background(), "kb-7")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(raw) != `{"id":"kb-7","status":"ready"}` {
		t.Errorf("raw response not preserved: %s", raw)
	}
}

func TestQueryEmbeddings(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/knowledgebase/kb-1/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["knowledgeBaseId"] != "kb-1" || body["query"] != "What is X?" || body["topK"] != float64(5) {
			t.Errorf("unexpected request body: %v", body)
		}
		io.WriteString(w, `{"embeddings":[{"content":"X is a thing."},{"content":"X was invented in 1999."}]}`)
	}))
	defer upstream.Close()

	chunks, err := newTestClient(upstream.URL).QueryEmbeddings(context.Background(), "kb-1", "What is X?", 5)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Content != "X is a thing." || chunks[1].Content != "X was invented in 1999." {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestQueryEmbeddings_EmptyResult(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"embeddings":[]}`)
	}))
	defer upstream.Close()

	chunks, err := newTestClient(upstream.URL).QueryEmbeddings(context.Background(), "kb-1", "q", 5)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %+v", chunks)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusUnprocessableEntity, KindBadRequest},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindServerError},
		{http.StatusBadGateway, KindServerError},
	}

	for _, tc := range cases {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			io.WriteString(w, `{"error":"upstream says no"}`)
		}))

		_, err := newTestClient(upstream.URL).GetKnowledgeBase(context.Background(), "kb-1")
		upstream.Close()

		var uerr *Error
		if !errors.As(err, &uerr) {
			t.Fatalf("status %d: expected *Error, got %v", tc.status, err)
		}
		if uerr.Kind != tc.kind {
			t.Errorf("status %d: expected kind %s, got %s", tc.status, tc.kind, uerr.Kind)
		}
		if uerr.StatusCode != tc.status {
			t.Errorf("status %d not preserved, got %d", tc.status, uerr.StatusCode)
		}
		if !bytes.Equal(uerr.Body, []byte(`{"error":"upstream says no"}`)) {
			t.Errorf("status %d: body not preserved: %s", tc.status, uerr.Body)
		}
	}
}

func TestUnreachableUpstream(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").ListKnowledgeBases(context.Background())

	var uerr *Error
	if !errors.As(err, &uerr) || uerr.Kind != KindUnreachable {
		t.Errorf("expected unreachable error, got %v", err)
	}
}

func TestDecodeList_UnknownShape(t *testing.T) {
	if _, err := decodeList([]byte(`{"something":"else"}`)); err == nil {
		t.Error("expected error for unrecognized shape")
	}
}
