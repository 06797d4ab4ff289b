package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.ports.Query == nil {
		writeError(w, http.StatusServiceUnavailable, "query service not configured")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := s.ports.Query.Query(r.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(result))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.ports.Index == nil {
		writeError(w, http.StatusServiceUnavailable, "index service not configured")
		return
	}

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	docID := strings.TrimSpace(req.DocID)
	if docID == "" {
		docID = uuid.NewString()
	}
	title := req.Title
	if title == "" {
		title = docID
	}

	receipt, err := s.ports.Index.Index(r.Context(), domain.Submission{
		DocID:     docID,
		Title:     title,
		SourceURL: req.SourceURL,
		Category:  req.Category,
		Tags:      req.Tags,
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.ports.Index == nil {
		writeError(w, http.StatusServiceUnavailable, "index service not configured")
		return
	}

	status, err := s.ports.Index.ReindexAll(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	code := http.StatusAccepted
	if status == driving.ReindexAlreadyRunning {
		code = http.StatusConflict
	}
	writeJSON(w, code, reindexResponse{Status: string(status)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.ports.Admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin service not configured")
		return
	}

	stats, err := s.ports.Admin.Status(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := statusResponse{
		DocumentCount: stats.DocumentCount,
		VectorCount:   stats.VectorCount,
		Threshold:     stats.Threshold,
		TopK:          stats.TopK,
	}
	if !stats.LastIndexed.IsZero() {
		resp.LastIndexed = stats.LastIndexed.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin service not configured")
		return
	}

	docs, err := s.ports.Admin.Documents(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	payload := make([]documentPayload, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, toDocumentPayload(doc))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin service not configured")
		return
	}

	docID := r.PathValue("id")
	doc, err := s.ports.Admin.Document(r.Context(), docID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDocumentPayload(*doc))
}

// statusFor maps domain failures onto HTTP statuses: invalid input is
// the caller's fault, model-service faults are upstream errors, and
// timeouts get their own code so clients can retry sensibly.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReindexRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmbeddingTimeout), errors.Is(err, domain.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrEmbeddingFailed), errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
