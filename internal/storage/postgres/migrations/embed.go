// Package migrations embeds the goose SQL migrations that manage the
// students schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
