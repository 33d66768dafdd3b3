//go:build embed_migrations

// Package db embeds the SQL schema migrations for production builds.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
