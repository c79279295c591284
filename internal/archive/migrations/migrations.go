// Package migrations embeds the goose migrations of the local archive.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
