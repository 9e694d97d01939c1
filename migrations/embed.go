// Package migrations holds the versioned PostgreSQL schema, applied by
// db.Migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
