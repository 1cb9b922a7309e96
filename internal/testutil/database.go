package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/database"
)

func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewTestStore returns a started content store over a fresh in-memory database.
func NewTestStore(t *testing.T) *contentstore.SQLiteStore {
	t.Helper()

	store := contentstore.NewSQLiteStore(NewTestDatabase(t), contentstore.NewLocalNotifier())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := store.Start(ctx); err != nil {
		t.Fatalf("starting test store: %v", err)
	}
	return store
}

// WaitFor polls condition until it holds or two seconds pass.
func WaitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}
