package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Ansa resources.
	uriScheme = "ansa://"
)

// documentInfo is the JSON shape a document resource renders to.
type documentInfo struct {
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

// registerResources exposes the read-only browse surfaces.
func (s *Server) registerResources() {
	// Static resource for listing registered documents.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "All registered documents with their indexing states",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a single document's registry entry.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{docId}",
		Name:        "document",
		Description: "One document's indexing state and attribution metadata",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDocumentsResource returns the full document registry.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Admin == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	docs, err := s.ports.Admin.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = toDocumentInfo(&docs[i])
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentResource returns one document's registry entry.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Admin == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract docId from URI: ansa://documents/{docId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Admin.Document(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	info := toDocumentInfo(doc)
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// toDocumentInfo maps a registry document onto the resource shape.
func toDocumentInfo(doc *domain.Document) documentInfo {
	info := documentInfo{
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
		info.LastIndexed = doc.LastIndexed.UTC().Format(time.RFC3339)
	}
	return info
}

// extractDocumentID extracts the document ID from a URI like ansa://documents/{docId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
