// Package migrations embeds the goose SQL migrations for the users and
// relationships schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
