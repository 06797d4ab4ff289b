// Package driving declares the entry-point interfaces the CLI and MCP
// server call into: indexing, querying, settings and administration.
//
// The services package implements them; adapters only ever see these
// interfaces, never the concrete service types.
package driving
