package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/identity"
)

// provisionResult distinguishes a created identity from an existing one.
type provisionResult int

const (
	provisionCreated provisionResult = iota
	provisionExisting
)

// provisionIdentity creates one identity record through the identity
// subsystem unless one already exists with the same email. Role assignment
// is a best-effort optional side effect: a nil assigner is tolerated.
func (e *Engine) provisionIdentity(ctx context.Context, h document.Handle, rec document.Record) (provisionResult, error) {
	ident, err := identityFromRecord(rec)
	if err != nil {
		return provisionExisting, err
	}

	_, exists, err := e.store.FindOne(ctx, h, "email", ident.email)
	if err != nil {
		return provisionExisting, fmt.Errorf("failed to look up identity %s: %w", ident.email, err)
	}
	if exists {
		// Idempotent per record: no duplicate creation, no error.
		e.logger.Debug().Str("email", ident.email).Msg("Identity already exists, skipping")
		return provisionExisting, nil
	}

	id, err := e.identity.CreateIdentity(ctx, ident.email, ident.password, ident.profile)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			// The pre-check said otherwise; surface it, do not swallow.
			return provisionExisting, NewDuplicateIdentityError(ident.email, err)
		}
		return provisionExisting, fmt.Errorf("failed to create identity %s: %w", ident.email, err)
	}

	if len(ident.roles) > 0 {
		if e.roles == nil {
			e.logger.Debug().Str("email", ident.email).Msg("No role assigner configured, skipping role assignment")
		} else if err := e.roles.AssignRoles(ctx, id, ident.roles); err != nil {
			return provisionCreated, fmt.Errorf("failed to assign roles to %s: %w", ident.email, err)
		}
	}

	return provisionCreated, nil
}
