// Package migrations holds the goose SQL migrations for the run ledger.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
