package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to answer from the corpus"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default 5)"`
}

// AskOutput is the output schema for the ask tool. Answer is null when
// no confident match exists; Suggestions and Rephrases then point at
// material worth reading instead of a fabricated answer.
type AskOutput struct {
	Answer      *string            `json:"answer"`
	Sources     []SourceOutput     `json:"sources"`
	Suggestions []SuggestionOutput `json:"suggestions,omitempty"`
	Rephrases   []string           `json:"rephrases,omitempty"`
	Redirect    string             `json:"redirect,omitempty"`
	TopScore    float64            `json:"top_score"`
	Threshold   float64            `json:"threshold"`
	Strict      bool               `json:"strict"`
}

// SourceOutput is one cited document.
type SourceOutput struct {
	DocID     string  `json:"doc_id"`
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Score     float64 `json:"score"`
}

// SuggestionOutput is one reading suggestion on the low-confidence path.
type SuggestionOutput struct {
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

// IndexDocumentInput is the input schema for the index_document tool.
type IndexDocumentInput struct {
	DocID     string   `json:"doc_id" jsonschema:"stable document identifier; re-indexing the same id supersedes the previous version"`
	Title     string   `json:"title,omitempty" jsonschema:"human-readable document title"`
	Text      string   `json:"text" jsonschema:"the extracted plain text to index"`
	SourceURL string   `json:"source_url,omitempty" jsonschema:"canonical location of the document"`
	Category  string   `json:"category,omitempty" jsonschema:"category grouping related documents"`
	Tags      []string `json:"tags,omitempty" jsonschema:"free-form labels"`
}

// IndexDocumentOutput is the output schema for the index_document tool.
type IndexDocumentOutput struct {
	DocID      string `json:"doc_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Reason     string `json:"reason,omitempty"`
}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Status string `json:"status"`
}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	DocumentCount int     `json:"document_count"`
	VectorCount   int     `json:"vector_count"`
	LastIndexed   string  `json:"last_indexed,omitempty"`
	Threshold     float64 `json:"threshold"`
	TopK          int     `json:"top_k"`
}

// Tool availability errors for optional ports.
var (
	errIndexUnavailable = errors.New("indexing is not available")
	errAdminUnavailable = errors.New("status is not available")
)

// registerTools wires the ask/index/status tools onto the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered strictly from the indexed corpus, with source citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_document",
		Description: "Index a document's plain text so it becomes retrievable",
	}, s.handleIndexDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Re-index the whole corpus directory in the background",
	}, s.handleReindex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report document and vector counts plus the active retrieval settings",
	}, s.handleStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Query.Query(ctx, input.Question, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    result.Answer,
		Sources:   make([]SourceOutput, len(result.Sources)),
		Rephrases: result.Rephrases,
		Redirect:  result.Redirect,
		TopScore:  result.TopScore,
		Threshold: result.Threshold,
		Strict:    result.Strict,
	}
	for i := range result.Sources {
		output.Sources[i] = SourceOutput{
			DocID:     result.Sources[i].DocID,
			Title:     result.Sources[i].Title,
			SourceURL: result.Sources[i].SourceURL,
			Score:     result.Sources[i].Score,
		}
	}
	if len(result.Suggestions) > 0 {
		output.Suggestions = make([]SuggestionOutput, len(result.Suggestions))
		for i := range result.Suggestions {
			output.Suggestions[i] = SuggestionOutput{
				Title:     result.Suggestions[i].Title,
				SourceURL: result.Suggestions[i].SourceURL,
				Snippet:   result.Suggestions[i].Snippet,
				Score:     result.Suggestions[i].Score,
			}
		}
	}

	return nil, output, nil
}

// handleIndexDocument handles the index_document tool invocation.
func (s *Server) handleIndexDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexDocumentInput,
) (*mcp.CallToolResult, IndexDocumentOutput, error) {
	if s.ports.Index == nil {
		return nil, IndexDocumentOutput{}, errIndexUnavailable
	}

	receipt, err := s.ports.Index.Index(ctx, domain.Submission{
		DocID:     input.DocID,
		Title:     input.Title,
		SourceURL: input.SourceURL,
		Category:  input.Category,
		Tags:      input.Tags,
		Text:      input.Text,
	})
	if err != nil {
		return nil, IndexDocumentOutput{}, err
	}

	return nil, IndexDocumentOutput{
		DocID:      receipt.DocID,
		Status:     receipt.Status.String(),
		ChunkCount: receipt.ChunkCount,
		Reason:     receipt.Reason,
	}, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ReindexOutput, error) {
	if s.ports.Index == nil {
		return nil, ReindexOutput{}, errIndexUnavailable
	}

	status, err := s.ports.Index.ReindexAll(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}

	return nil, ReindexOutput{Status: string(status)}, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Admin == nil {
		return nil, StatusOutput{}, errAdminUnavailable
	}

	stats, err := s.ports.Admin.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		DocumentCount: stats.DocumentCount,
		VectorCount:   stats.VectorCount,
		Threshold:     stats.Threshold,
		TopK:          stats.TopK,
	}
	if !stats.LastIndexed.IsZero() {
		output.LastIndexed = stats.LastIndexed.UTC().Format(time.RFC3339)
	}

	return nil, output, nil
}
