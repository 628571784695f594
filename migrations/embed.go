// Package migrations embeds SQL migration files for database schema management.
package migrations

import "embed"

// FS holds the embedded SQL migration files, one directory per database driver.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
