// Package migrations embeds the versioned schema applied by cmd/migrate.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
