package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/seedbed/seedbed/pkg/document"
)

// TestCreateIdentity tests identity creation and credential hashing
func TestCreateIdentity(t *testing.T) {
	store := document.NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	id, err := mgr.CreateIdentity(ctx, "admin@example.com", "s3cret", map[string]any{"name": "Admin"})
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}
	if id == "" {
		t.Fatal("expected an identifier")
	}

	rec, found, err := store.FindOne(ctx, document.Handle{Name: document.IdentityCollection}, "email", "admin@example.com")
	if err != nil || !found {
		t.Fatalf("expected stored identity, found=%v err=%v", found, err)
	}

	// The credential must be stored hashed, never as plaintext
	if rec["password"] == "s3cret" {
		t.Error("credential stored as plaintext")
	}

	ok, err := mgr.VerifyCredential(ctx, "admin@example.com", "s3cret")
	if err != nil {
		t.Fatalf("failed to verify credential: %v", err)
	}
	if !ok {
		t.Error("expected credential to verify")
	}

	ok, err = mgr.VerifyCredential(ctx, "admin@example.com", "wrong")
	if err != nil {
		t.Fatalf("failed to verify credential: %v", err)
	}
	if ok {
		t.Error("expected wrong credential to fail verification")
	}
}

// TestCreateIdentityDuplicate tests ErrEmailTaken on duplicate emails
func TestCreateIdentityDuplicate(t *testing.T) {
	store := document.NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	if _, err := mgr.CreateIdentity(ctx, "admin@example.com", "s3cret", nil); err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}

	_, err := mgr.CreateIdentity(ctx, "admin@example.com", "other", nil)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	count, err := store.Count(ctx, document.Handle{Name: document.IdentityCollection})
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 identity, got %d", count)
	}
}

// TestCreateIdentityValidation tests rejection of malformed input
func TestCreateIdentityValidation(t *testing.T) {
	mgr := NewManager(document.NewMemoryStore())
	ctx := context.Background()

	if _, err := mgr.CreateIdentity(ctx, "", "s3cret", nil); err == nil {
		t.Error("expected error for empty email")
	}
	if _, err := mgr.CreateIdentity(ctx, "admin@example.com", "", nil); err == nil {
		t.Error("expected error for empty password")
	}
	if _, err := mgr.CreateIdentity(ctx, "not-an-email", "s3cret", nil); err == nil {
		t.Error("expected error for malformed email")
	}
}

// TestStoreRoleAssigner tests role assignment and idempotence
func TestStoreRoleAssigner(t *testing.T) {
	store := document.NewMemoryStore()
	assigner := NewStoreRoleAssigner(store)
	ctx := context.Background()

	if err := assigner.AssignRoles(ctx, "user-1", []string{"admin", "editor"}); err != nil {
		t.Fatalf("failed to assign roles: %v", err)
	}

	// Re-assigning must not duplicate
	if err := assigner.AssignRoles(ctx, "user-1", []string{"admin"}); err != nil {
		t.Fatalf("failed to re-assign role: %v", err)
	}

	roles, err := assigner.RolesOf(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d: %v", len(roles), roles)
	}
}
