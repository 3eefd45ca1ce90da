// Package appfs embeds the static files shipped with the binaries:
// database migrations, email and document templates, and the password blocklist.
package appfs

import "embed"

//go:embed migrations/*.sql all:templates assets
var FS embed.FS
