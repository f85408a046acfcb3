// Package migrations embeds the SQL schema of the recordings database
package migrations

import "embed"

// FS holds the numbered *.sql migration files
//
//go:embed *.sql
var FS embed.FS
