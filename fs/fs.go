// Package appfs embeds the static assets the app needs at runtime: goose
// migrations and email templates.
package appfs

import (
	"embed"

	"github.com/veritrain/veritrain/core"
)

//go:embed migrations assets
var FS embed.FS

// MigrationsDir is the path of the goose migrations inside FS.
const MigrationsDir = "migrations"

func init() {
	core.TemplatesFS = FS
}
