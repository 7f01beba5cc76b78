package document

import (
	"context"
	"testing"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(SQLiteConfig{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

// TestSQLiteStoreLifecycle tests database initialization and closure
func TestSQLiteStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestSQLiteStoreRequiresPath tests that an empty path is rejected
func TestSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// TestSQLiteStoreInsertAndCount tests insert and count against the documents table
func TestSQLiteStoreInsertAndCount(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	h := Handle{Name: "Products"}

	count, err := store.Count(ctx, h)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty collection, got %d records", count)
	}

	id, err := store.Insert(ctx, h, Record{"name": "widget", "price": 10})
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if id == "" {
		t.Error("expected a generated identifier")
	}

	count, err = store.Count(ctx, h)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}

	// Collections are isolated from each other
	other, err := store.Count(ctx, Handle{Name: "Orders"})
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if other != 0 {
		t.Errorf("expected Orders to be empty, got %d records", other)
	}
}

// TestSQLiteStoreFindOne tests json_extract field lookup
func TestSQLiteStoreFindOne(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	h := Handle{Name: "Users"}

	if _, err := store.Insert(ctx, h, Record{"email": "a@example.com"}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if _, err := store.Insert(ctx, h, Record{"email": "b@example.com"}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	rec, found, err := store.FindOne(ctx, h, "email", "b@example.com")
	if err != nil {
		t.Fatalf("failed to find: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if rec["email"] != "b@example.com" {
		t.Errorf("expected b@example.com, got %v", rec["email"])
	}
	if rec["_id"] == "" {
		t.Error("expected stored record to carry an _id")
	}

	_, found, err = store.FindOne(ctx, h, "email", "missing@example.com")
	if err != nil {
		t.Fatalf("failed to find: %v", err)
	}
	if found {
		t.Error("expected no match")
	}
}

// TestSQLiteStoreListOrder tests that List preserves insertion order
func TestSQLiteStoreListOrder(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	h := Handle{Name: "Products"}

	names := []string{"first", "second", "third"}
	for _, name := range names {
		if _, err := store.Insert(ctx, h, Record{"name": name}); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
	}

	records, err := store.List(ctx, h)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(records) != len(names) {
		t.Fatalf("expected %d records, got %d", len(names), len(records))
	}
	for i, rec := range records {
		if rec["name"] != names[i] {
			t.Errorf("records[%d] has name %v, want %s", i, rec["name"], names[i])
		}
	}
}

// TestSQLiteStoreDuplicateID tests the unique constraint on (collection, id)
func TestSQLiteStoreDuplicateID(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	h := Handle{Name: "Products"}

	if _, err := store.Insert(ctx, h, Record{"_id": "dup", "name": "widget"}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if _, err := store.Insert(ctx, h, Record{"_id": "dup", "name": "widget"}); err == nil {
		t.Fatal("expected duplicate id insert to fail")
	}
}
