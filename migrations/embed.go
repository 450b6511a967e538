// Package migrations embeds the SQL schema files into the binary.
//
// The files sit at the root of FS, ready for database.DB.Migrate.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
