package httpapi

import (
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// queryRequest is the body of POST /api/query.
type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// queryResponse is the result of a query. The answer key is always
// present: null means "no confident answer", and the suggestion fields
// carry what to read instead.
type queryResponse struct {
	Answer      *string             `json:"answer"`
	Sources     []sourcePayload     `json:"sources"`
	Suggestions []suggestionPayload `json:"suggestions,omitempty"`
	Rephrases   []string            `json:"rephrases,omitempty"`
	Redirect    string              `json:"redirect,omitempty"`
	TopScore    float64             `json:"top_score"`
	Threshold   float64             `json:"threshold"`
	Strict      bool                `json:"strict"`
}

type sourcePayload struct {
	DocID     string  `json:"doc_id"`
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Score     float64 `json:"score"`
}

type suggestionPayload struct {
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

// indexRequest is the body of POST /api/index. DocID is optional; a
// submission without one gets a generated ID.
type indexRequest struct {
	DocID     string   `json:"doc_id"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	SourceURL string   `json:"source_url"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
}

// receiptResponse reports one indexing outcome. Failed documents are
// recorded, not thrown: the response is 200 with status "failed".
type receiptResponse struct {
	DocID      string `json:"doc_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Reason     string `json:"reason,omitempty"`
}

type reindexResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	DocumentCount int     `json:"document_count"`
	VectorCount   int     `json:"vector_count"`
	LastIndexed   string  `json:"last_indexed,omitempty"`
	Threshold     float64 `json:"threshold"`
	TopK          int     `json:"top_k"`
}

type documentPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	SourceURL   string   `json:"source_url,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status"`
	ChunkCount  int      `json:"chunk_count"`
	Failure     string   `json:"failure,omitempty"`
	LastIndexed string   `json:"last_indexed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toQueryResponse(result domain.QueryResult) queryResponse {
	resp := queryResponse{
		Answer:    result.Answer,
		Sources:   make([]sourcePayload, 0, len(result.Sources)),
		Rephrases: result.Rephrases,
		Redirect:  result.Redirect,
		TopScore:  result.TopScore,
		Threshold: result.Threshold,
		Strict:    result.Strict,
	}
	for _, s := range result.Sources {
		resp.Sources = append(resp.Sources, sourcePayload{
			DocID:     s.DocID,
			Title:     s.Title,
			SourceURL: s.SourceURL,
			Score:     s.Score,
		})
	}
	for _, s := range result.Suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionPayload{
			Title:     s.Title,
			SourceURL: s.SourceURL,
			Snippet:   s.Snippet,
			Score:     s.Score,
		})
	}
	return resp
}

func toReceiptResponse(receipt domain.Receipt) receiptResponse {
	return receiptResponse{
		DocID:      receipt.DocID,
		Status:     receipt.Status.String(),
		ChunkCount: receipt.ChunkCount,
		Reason:     receipt.Reason,
	}
}

func toDocumentPayload(doc domain.Document) documentPayload {
	payload := documentPayload{
		ID:         doc.ID,
		Title:      doc.Title,
		SourceURL:  doc.SourceURL,
		Category:   doc.Category,
		Tags:       doc.Tags,
		Status:     doc.Status.String(),
		ChunkCount: doc.ChunkCount,
		Failure:    doc.Failure,
	}
	if !doc.LastIndexed.IsZero() {
		payload.LastIndexed = doc.LastIndexed.UTC().Format(time.RFC3339)
	}
	return payload
}
