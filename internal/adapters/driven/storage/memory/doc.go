// Package memory provides in-memory implementations of the storage ports.
//
// These stores back tests and ephemeral setups where durability is not
// required. All stores are safe for concurrent use.
package memory
