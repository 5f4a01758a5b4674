// Package migrations embeds SQL schema migrations applied on server startup.
package migrations

import "embed"

// FS exposes the embedded migration files to goose.
//
//go:embed *.sql
var FS embed.FS
