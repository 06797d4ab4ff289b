package mcp

import (
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Ports bundles the driving services the MCP server exposes as tools
// and resources, so callers wire the server with one value.
type Ports struct {
	// Query answers questions from the indexed corpus.
	Query driving.QueryService

	// Index runs the indexing pipeline.
	Index driving.IndexService

	// Admin exposes index health and the document registry.
	Admin driving.AdminService
}

// Validate reports whether the bundle can serve a client. Only Query is
// mandatory; tools backed by a nil Index or Admin report unavailability
// instead.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
