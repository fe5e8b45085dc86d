// Package migrations holds the versioned SQLite schema applied by golang-migrate.
package migrations

import "embed"

// FS contains the up and down migration files.
//
//go:embed *.sql
var FS embed.FS
