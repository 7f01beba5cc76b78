package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/identity"
)

func userRecords() []document.Record {
	return []document.Record{
		{"email": "admin@example.com", "password": "changeme", "roles": []string{"admin"}},
		{"email": "reader@example.com", "password": "changeme"},
	}
}

func TestSeed_IdentityRouting(t *testing.T) {
	eng, store := testEngine(t, "development")

	result, err := eng.Seed(context.Background(), "users", Options{Records: userRecords()})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if result.Collection != document.IdentityCollection {
		t.Errorf("Collection = %q, want %q", result.Collection, document.IdentityCollection)
	}
	if result.Provisioned != 2 {
		t.Errorf("Provisioned = %d, want 2", result.Provisioned)
	}
	if result.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0 (identities are provisioned, not raw-inserted)", result.Inserted)
	}

	// Credentials were hashed through the identity subsystem, never stored
	// as plain text.
	stored, _, err := store.FindOne(context.Background(), document.Handle{Name: document.IdentityCollection}, "email", "admin@example.com")
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if stored["password"] == "changeme" {
		t.Error("Password stored in plain text")
	}

	// Roles were assigned to the created identity.
	assigner := identity.NewStoreRoleAssigner(store)
	id, _ := stored["_id"].(string)
	roles, err := assigner.RolesOf(context.Background(), id)
	if err != nil {
		t.Fatalf("RolesOf failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("roles = %v, want [admin]", roles)
	}
}

func TestSeed_IdentityIdempotentPerRecord(t *testing.T) {
	eng, store := testEngine(t, "development")

	// Pre-provision one of the two identities.
	manager := identity.NewManager(store)
	if _, err := manager.CreateIdentity(context.Background(), "admin@example.com", "changeme", nil); err != nil {
		t.Fatalf("CreateIdentity failed: %v", err)
	}

	// Defeat the count-based guard so the per-record path is exercised:
	// the guard sees a non-empty collection, so top up via generated mode.
	records := userRecords()
	gen := func(i int) document.Record { return records[i] }

	result, err := eng.Seed(context.Background(), "users", Options{Generator: gen, MinCount: 2})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if result.Provisioned != 1 {
		t.Errorf("Provisioned = %d, want 1", result.Provisioned)
	}
	if result.Existing != 1 {
		t.Errorf("Existing = %d, want 1", result.Existing)
	}
	if got := mustCount(t, store, document.IdentityCollection); got != 2 {
		t.Errorf("Count = %d, want 2 (no duplicate identity)", got)
	}
}

func TestSeed_IdentityInvalidRecord(t *testing.T) {
	eng, store := testEngine(t, "development")

	_, err := eng.Seed(context.Background(), "users", Options{
		Records: []document.Record{{"email": "admin@example.com"}},
	})
	if err == nil {
		t.Fatal("Expected error for identity record without a credential")
	}
	if !IsInvalidRecord(err) {
		t.Errorf("Expected invalid-record error, got %v", err)
	}

	_, err = eng.Seed(context.Background(), "users", Options{
		Records: []document.Record{{"password": "changeme"}},
	})
	if err == nil {
		t.Fatal("Expected error for identity record without an email")
	}
	if !IsInvalidRecord(err) {
		t.Errorf("Expected invalid-record error, got %v", err)
	}

	if got := mustCount(t, store, document.IdentityCollection); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

// racingIdentity simulates a concurrent writer: the pre-check misses but the
// create call still reports the email as taken.
type racingIdentity struct{}

func (racingIdentity) CreateIdentity(ctx context.Context, email, password string, profile map[string]any) (string, error) {
	return "", identity.ErrEmailTaken
}

func TestSeed_DuplicateIdentityFromSubsystem(t *testing.T) {
	store := document.NewMemoryStore()
	defer store.Close()

	registry := document.NewRegistry()
	eng, err := New(Config{
		Store:       store,
		Registry:    registry,
		Environment: "development",
		Identity:    racingIdentity{},
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	_, err = eng.Seed(context.Background(), "users", Options{
		Records: []document.Record{{"email": "admin@example.com", "password": "changeme"}},
	})
	if err == nil {
		t.Fatal("Expected duplicate-identity error")
	}
	if !IsDuplicateIdentity(err) {
		t.Errorf("Expected duplicate-identity error, got %v", err)
	}
	if !errors.Is(err, identity.ErrEmailTaken) {
		t.Errorf("Underlying cause should be preserved, got %v", err)
	}
}

func TestSeed_NilRoleAssignerTolerated(t *testing.T) {
	store := document.NewMemoryStore()
	defer store.Close()

	eng, err := New(Config{
		Store:       store,
		Registry:    document.NewRegistry(),
		Environment: "development",
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	result, err := eng.Seed(context.Background(), "users", Options{
		Records: []document.Record{
			{"email": "admin@example.com", "password": "changeme", "roles": []string{"admin"}},
		},
	})
	if err != nil {
		t.Fatalf("Seed with nil role assigner failed: %v", err)
	}
	if result.Provisioned != 1 {
		t.Errorf("Provisioned = %d, want 1", result.Provisioned)
	}
}

func TestSeed_RolesFromYAMLShape(t *testing.T) {
	eng, store := testEngine(t, "development")

	// YAML and JSON decoding yields []any, not []string.
	result, err := eng.Seed(context.Background(), "users", Options{
		Records: []document.Record{
			{"email": "ops@example.com", "password": "changeme", "roles": []any{"operator", "auditor"}},
		},
	})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if result.Provisioned != 1 {
		t.Errorf("Provisioned = %d, want 1", result.Provisioned)
	}

	stored, _, err := store.FindOne(context.Background(), document.Handle{Name: document.IdentityCollection}, "email", "ops@example.com")
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	id, _ := stored["_id"].(string)
	roles, err := identity.NewStoreRoleAssigner(store).RolesOf(context.Background(), id)
	if err != nil {
		t.Fatalf("RolesOf failed: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("roles = %v, want 2 entries", roles)
	}
}
