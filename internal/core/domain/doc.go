// Package domain holds the entities of the question-answering core:
// documents and their indexing lifecycle, chunks, retrieval outcomes,
// and the two-shape answer contract.
//
// The package sits at the centre of the hexagon and imports only the
// standard library. Services express policy over these types; ports
// carry them across the boundary; adapters translate them to storage
// rows, wire formats and model APIs. Nothing imports back into domain.
package domain
