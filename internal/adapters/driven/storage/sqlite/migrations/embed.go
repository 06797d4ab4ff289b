// Package migrations carries the SQLite schema as embedded SQL files,
// applied in version order when the store opens.
package migrations

import "embed"

// FS holds the numbered *.up.sql and *.down.sql scripts.
//
//go:embed *.sql
var FS embed.FS
