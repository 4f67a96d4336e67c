// Package migrations embeds the SQL migrations for the sqlite row store.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
