package identity

import (
	"context"
	"fmt"

	"github.com/seedbed/seedbed/pkg/document"
)

// RolesCollection is the collection holding role assignment documents.
const RolesCollection = "Roles"

// RoleAssigner grants roles to an identity. It is an optional collaborator:
// callers must tolerate its absence and treat assignment as best effort.
type RoleAssigner interface {
	AssignRoles(ctx context.Context, id string, roles []string) error
}

// StoreRoleAssigner persists role assignments as documents in the Roles
// collection, one document per (user, role) pair.
type StoreRoleAssigner struct {
	store  document.Store
	handle document.Handle
}

// NewStoreRoleAssigner creates a store-backed role assigner.
func NewStoreRoleAssigner(store document.Store) *StoreRoleAssigner {
	return &StoreRoleAssigner{
		store:  store,
		handle: document.Handle{Name: RolesCollection},
	}
}

// AssignRoles grants the given roles to the identity. Already-granted roles
// are left untouched.
func (a *StoreRoleAssigner) AssignRoles(ctx context.Context, id string, roles []string) error {
	for _, role := range roles {
		assignment := fmt.Sprintf("%s:%s", id, role)

		_, exists, err := a.store.FindOne(ctx, a.handle, "assignment", assignment)
		if err != nil {
			return fmt.Errorf("failed to check role %s: %w", role, err)
		}
		if exists {
			continue
		}

		rec := document.Record{
			"assignment": assignment,
			"userId":     id,
			"role":       role,
		}
		if _, err := a.store.Insert(ctx, a.handle, rec); err != nil {
			return fmt.Errorf("failed to assign role %s: %w", role, err)
		}
	}
	return nil
}

// RolesOf returns the roles granted to an identity.
func (a *StoreRoleAssigner) RolesOf(ctx context.Context, id string) ([]string, error) {
	records, err := a.store.List(ctx, a.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}

	var roles []string
	for _, rec := range records {
		if rec["userId"] == id {
			if role, ok := rec["role"].(string); ok {
				roles = append(roles, role)
			}
		}
	}
	return roles, nil
}
