// Package migrations embeds the goose SQL migrations for every bounded context.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed customer/*.sql
var files embed.FS

// Customer returns the customer migrations rooted at their directory, ready
// for migrator.Up.
func Customer() fs.FS {
	sub, err := fs.Sub(files, "customer")
	if err != nil {
		panic(err) // the directory is embedded at compile time
	}
	return sub
}
