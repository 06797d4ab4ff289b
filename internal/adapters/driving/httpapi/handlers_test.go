package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// do routes one request through the full handler stack and returns the
// recorded response.
func do(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	server := NewServer(&Ports{})

	rec := do(t, server, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQuery_ConfidentAnswer(t *testing.T) {
	answer := "Place key elements on the gridline intersections.\n\nSources:\n[1] Rule of Thirds (guides/thirds)"
	query := &mockQueryService{result: domain.QueryResult{
		Answer: &answer,
		Sources: []domain.Source{
			{DocID: "guides/thirds", Title: "Rule of Thirds", SourceURL: "/corpus/guides/thirds.md", Score: 0.91},
		},
		TopScore:  0.91,
		Threshold: 0.78,
		Strict:    true,
	}}
	server := NewServer(&Ports{Query: query})

	rec := do(t, server, http.MethodPost, "/api/query",
		`{"question": "What is the rule of thirds?", "top_k": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is the rule of thirds?", query.lastQuestion)
	assert.Equal(t, 3, query.lastTopK)

	var resp queryResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Answer)
	assert.Contains(t, *resp.Answer, "gridline")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "guides/thirds", resp.Sources[0].DocID)
	assert.InDelta(t, 0.91, resp.TopScore, 1e-9)
	assert.True(t, resp.Strict)
}

func TestQuery_LowConfidence(t *testing.T) {
	query := &mockQueryService{result: domain.QueryResult{
		Suggestions: []domain.Suggestion{
			{Title: "Lighting Basics", Snippet: "Soft light wraps around the subject...", Score: 0.55},
		},
		Rephrases: []string{"How do I light a portrait?"},
		TopScore:  0.55,
		Threshold: 0.78,
		Strict:    true,
	}}
	server := NewServer(&Ports{Query: query})

	rec := do(t, server, http.MethodPost, "/api/query", `{"question": "lighting?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	// The answer key must be present and null so clients can test it
	// without string matching.
	assert.Contains(t, rec.Body.String(), `"answer":null`)

	var resp queryResponse
	decodeBody(t, rec, &resp)
	assert.Nil(t, resp.Answer)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Lighting Basics", resp.Suggestions[0].Title)
	assert.Equal(t, []string{"How do I light a portrait?"}, resp.Rephrases)
}

func TestQuery_EmptyQuestion(t *testing.T) {
	server := NewServer(&Ports{Query: &mockQueryService{}})

	rec := do(t, server, http.MethodPost, "/api/query", `{"question": "   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}

func TestQuery_MalformedJSON(t *testing.T) {
	server := NewServer(&Ports{Query: &mockQueryService{}})

	rec := do(t, server, http.MethodPost, "/api/query", `{"question": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
}

func TestQuery_NotConfigured(t *testing.T) {
	server := NewServer(&Ports{})

	rec := do(t, server, http.MethodPost, "/api/query", `{"question": "anything"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQuery_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"embedding failure maps to bad gateway", domain.ErrEmbeddingFailed, http.StatusBadGateway},
		{"generation failure maps to bad gateway", domain.ErrGenerationFailed, http.StatusBadGateway},
		{"embedding timeout maps to gateway timeout", domain.ErrEmbeddingTimeout, http.StatusGatewayTimeout},
		{"generation timeout maps to gateway timeout", domain.ErrGenerationTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(&Ports{Query: &mockQueryService{err: tt.err}})

			rec := do(t, server, http.MethodPost, "/api/query", `{"question": "anything"}`)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestIndex_Success(t *testing.T) {
	index := &mockIndexService{receipt: domain.Receipt{
		DocID:      "guides/thirds",
		Status:     domain.StatusIndexed,
		ChunkCount: 4,
	}}
	server := NewServer(&Ports{Index: index})

	rec := do(t, server, http.MethodPost, "/api/index",
		`{"doc_id": "guides/thirds", "title": "Rule of Thirds", "text": "Imagine the frame divided into nine parts..."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "guides/thirds", index.lastSubmission.DocID)
	assert.Equal(t, "Rule of Thirds", index.lastSubmission.Title)

	var resp receiptResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "indexed", resp.Status)
	assert.Equal(t, 4, resp.ChunkCount)
}

func TestIndex_GeneratesDocID(t *testing.T) {
	index := &mockIndexService{receipt: domain.Receipt{Status: domain.StatusIndexed}}
	server := NewServer(&Ports{Index: index})

	rec := do(t, server, http.MethodPost, "/api/index", `{"title": "Untitled", "text": "some text"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, index.lastSubmission.DocID)
}

func TestIndex_FailedReceiptIsOK(t *testing.T) {
	// Recorded, not thrown: an empty document is a failed receipt with
	// a 200, not an HTTP error.
	index := &mockIndexService{receipt: domain.Receipt{
		DocID:  "empty-doc",
		Status: domain.StatusFailed,
		Reason: "document has no extractable text",
	}}
	server := NewServer(&Ports{Index: index})

	rec := do(t, server, http.MethodPost, "/api/index", `{"doc_id": "empty-doc", "text": "   "}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp receiptResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Reason, "no extractable text")
}

func TestIndex_MalformedJSON(t *testing.T) {
	server := NewServer(&Ports{Index: &mockIndexService{}})

	rec := do(t, server, http.MethodPost, "/api/index", `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndex_NotConfigured(t *testing.T) {
	server := NewServer(&Ports{})

	rec := do(t, server, http.MethodPost, "/api/index", `{"text": "x"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReindex_Started(t *testing.T) {
	server := NewServer(&Ports{Index: &mockIndexService{reindexStatus: driving.ReindexStarted}})

	rec := do(t, server, http.MethodPost, "/api/reindex", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"started"}`, rec.Body.String())
}

func TestReindex_AlreadyRunning(t *testing.T) {
	server := NewServer(&Ports{Index: &mockIndexService{reindexStatus: driving.ReindexAlreadyRunning}})

	rec := do(t, server, http.MethodPost, "/api/reindex", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":"already_running"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	admin := &mockAdminService{stats: domain.Stats{
		DocumentCount: 12,
		VectorCount:   160,
		LastIndexed:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Threshold:     0.78,
		TopK:          5,
	}}
	server := NewServer(&Ports{Admin: admin})

	rec := do(t, server, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 12, resp.DocumentCount)
	assert.Equal(t, 160, resp.VectorCount)
	assert.Equal(t, "2024-06-01T12:00:00Z", resp.LastIndexed)
	assert.InDelta(t, 0.78, resp.Threshold, 1e-9)
	assert.Equal(t, 5, resp.TopK)
}

func TestStatus_OmitsZeroLastIndexed(t *testing.T) {
	server := NewServer(&Ports{Admin: &mockAdminService{stats: domain.Stats{TopK: 5}}})

	rec := do(t, server, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "last_indexed")
}

func TestDocuments_List(t *testing.T) {
	admin := &mockAdminService{documents: []domain.Document{
		{
			ID:          "guides/thirds",
			Title:       "Rule of Thirds",
			Status:      domain.StatusIndexed,
			ChunkCount:  4,
			LastIndexed: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{ID: "empty-doc", Status: domain.StatusFailed, Failure: "document has no extractable text"},
	}}
	server := NewServer(&Ports{Admin: admin})

	rec := do(t, server, http.MethodGet, "/api/documents", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []documentPayload
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "guides/thirds", resp[0].ID)
	assert.Equal(t, "indexed", resp[0].Status)
	assert.Equal(t, "2024-06-01T12:00:00Z", resp[0].LastIndexed)
	assert.Equal(t, "failed", resp[1].Status)
	assert.Contains(t, resp[1].Failure, "no extractable text")
}

func TestDocuments_EmptyList(t *testing.T) {
	server := NewServer(&Ports{Admin: &mockAdminService{}})

	rec := do(t, server, http.MethodGet, "/api/documents", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDocument_Get(t *testing.T) {
	admin := &mockAdminService{document: &domain.Document{
		ID:         "guides/thirds",
		Title:      "Rule of Thirds",
		Status:     domain.StatusIndexed,
		ChunkCount: 4,
	}}
	server := NewServer(&Ports{Admin: admin})

	// Document IDs contain slashes; the route must match the full
	// remainder of the path.
	rec := do(t, server, http.MethodGet, "/api/documents/guides/thirds", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp documentPayload
	decodeBody(t, rec, &resp)
	assert.Equal(t, "guides/thirds", resp.ID)
	assert.Equal(t, "Rule of Thirds", resp.Title)
}

func TestDocument_NotFound(t *testing.T) {
	server := NewServer(&Ports{Admin: &mockAdminService{}})

	rec := do(t, server, http.MethodGet, "/api/documents/no-such-doc", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"reindex running", domain.ErrReindexRunning, http.StatusConflict},
		{"embedding timeout", domain.ErrEmbeddingTimeout, http.StatusGatewayTimeout},
		{"generation failed", domain.ErrGenerationFailed, http.StatusBadGateway},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
