// Package migrations embeds the item schema for every supported dialect.
//
// Importing it for side effects registers the files with the database
// package, so the binary can migrate without SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/itemstore/internal/infrastructure/database"
)

//go:embed sqlite3/*.sql postgres/*.sql mysql/*.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // dialect directories sit at the root of the FS
}
