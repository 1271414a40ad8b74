// Package databasetest opens migrated in-memory databases for repository tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/nerrad567/enodebd/internal/infrastructure/database"
	_ "github.com/nerrad567/enodebd/migrations" // registers the embedded schema
)

// Open returns an in-memory database with every migration applied.
// It is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}
