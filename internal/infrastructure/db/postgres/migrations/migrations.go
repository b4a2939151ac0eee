// Package migrations embeds the resource schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
