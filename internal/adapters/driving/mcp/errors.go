// Package mcp provides an MCP (Model Context Protocol) server adapter for Ansa.
// It enables AI assistants like Claude to ask grounded questions against the
// indexed corpus and to inspect or trigger indexing.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
