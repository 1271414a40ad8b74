// Package migrations embeds the SQL schema so enodebd can migrate its
// database without the files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/enodebd/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.Migrations = migrationsFS
	database.MigrationsDir = "."
}
