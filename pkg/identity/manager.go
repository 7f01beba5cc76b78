package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seedbed/seedbed/pkg/document"
)

// ErrEmailTaken is returned when an identity with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// Manager creates identity records in the system identity collection.
type Manager struct {
	store    document.Store
	handle   document.Handle
	validate *validator.Validate
	cost     int
}

// NewManager creates a Manager bound to the identity collection of the store.
func NewManager(store document.Store) *Manager {
	return &Manager{
		store:    store,
		handle:   document.Handle{Name: document.IdentityCollection},
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
	}
}

// CreateIdentity validates and stores a new identity record and returns its
// identifier. The password is stored as a bcrypt hash. Fails with
// ErrEmailTaken if the email is already registered.
func (m *Manager) CreateIdentity(ctx context.Context, email, password string, profile map[string]any) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}
	if err := m.validate.Var(email, "email"); err != nil {
		return "", fmt.Errorf("invalid email %q: %w", email, err)
	}

	_, exists, err := m.store.FindOne(ctx, m.handle, "email", email)
	if err != nil {
		return "", fmt.Errorf("failed to check existing identity: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}

	rec := document.Record{
		"_id":       uuid.NewString(),
		"email":     email,
		"password":  string(hash),
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if profile != nil {
		rec["profile"] = profile
	}

	id, err := m.store.Insert(ctx, m.handle, rec)
	if err != nil {
		return "", fmt.Errorf("failed to store identity: %w", err)
	}

	return id, nil
}

// VerifyCredential checks a password against the stored hash for an email.
func (m *Manager) VerifyCredential(ctx context.Context, email, password string) (bool, error) {
	rec, found, err := m.store.FindOne(ctx, m.handle, "email", email)
	if err != nil {
		return false, fmt.Errorf("failed to look up identity: %w", err)
	}
	if !found {
		return false, nil
	}

	hash, _ := rec["password"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}
