// Package driven declares what the core needs from the outside world:
// embeddings, generation, vector search, document storage, configuration
// and prompt templates.
//
// Core services depend on these interfaces, never on concrete adapters.
// Implementations live under internal/adapters/driven and are injected
// by the process entry point.
package driven
