// Package migrations embeds the local cache schema.
package migrations

import "embed"

// FS holds the goose SQL migrations for the SQLite cache.
//
//go:embed *.sql
var FS embed.FS
