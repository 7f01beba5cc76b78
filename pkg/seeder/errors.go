package seeder

import (
	"errors"
	"fmt"
)

// ErrorKind classifies seeding failures. All of them are raised synchronously
// and terminate the run; none are retried internally.
type ErrorKind string

const (
	// ErrorKindMissingArguments indicates an absent collection name or an
	// options value carrying neither a fixed dataset nor a generator.
	ErrorKindMissingArguments ErrorKind = "missing_arguments"

	// ErrorKindAmbiguousMode indicates options carrying both a fixed dataset
	// and a generator.
	ErrorKindAmbiguousMode ErrorKind = "ambiguous_mode"

	// ErrorKindUnknownCollection indicates a collection name the registry
	// could not resolve.
	ErrorKindUnknownCollection ErrorKind = "unknown_collection"

	// ErrorKindDuplicateIdentity indicates the identity subsystem rejected a
	// create call despite the pre-check (race or pre-check bug).
	ErrorKindDuplicateIdentity ErrorKind = "duplicate_identity"

	// ErrorKindInvalidRecord indicates an identity record missing its email
	// identifier or credential.
	ErrorKindInvalidRecord ErrorKind = "invalid_record"
)

// SeedError is a classified seeding error.
// nolint:revive // SeedError is intentionally named to distinguish from standard errors
type SeedError struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Collection is the target collection, if known.
	Collection string `json:"collection,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *SeedError) Error() string {
	if e.Collection != "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s (collection=%s): %v", e.Kind, e.Message, e.Collection, e.Err)
		}
		return fmt.Sprintf("[%s] %s (collection=%s)", e.Kind, e.Message, e.Collection)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SeedError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *SeedError) Is(target error) bool {
	t, ok := target.(*SeedError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCollection adds collection context to an error.
func (e *SeedError) WithCollection(name string) *SeedError {
	e.Collection = name
	return e
}

// NewMissingArgumentsError creates a missing-arguments error.
func NewMissingArgumentsError(message string) *SeedError {
	return &SeedError{Kind: ErrorKindMissingArguments, Message: message}
}

// NewAmbiguousModeError creates an ambiguous-mode error.
func NewAmbiguousModeError(message string) *SeedError {
	return &SeedError{Kind: ErrorKindAmbiguousMode, Message: message}
}

// NewUnknownCollectionError creates an unknown-collection error.
func NewUnknownCollectionError(name string) *SeedError {
	return &SeedError{
		Kind:       ErrorKindUnknownCollection,
		Message:    "collection is not registered",
		Collection: name,
	}
}

// NewDuplicateIdentityError creates a duplicate-identity error.
func NewDuplicateIdentityError(email string, err error) *SeedError {
	return &SeedError{
		Kind:    ErrorKindDuplicateIdentity,
		Message: fmt.Sprintf("identity subsystem rejected %s", email),
		Err:     err,
	}
}

// NewInvalidRecordError creates an invalid-record error.
func NewInvalidRecordError(message string) *SeedError {
	return &SeedError{Kind: ErrorKindInvalidRecord, Message: message}
}

// IsMissingArguments returns true if the error is a missing-arguments error.
func IsMissingArguments(err error) bool {
	return hasKind(err, ErrorKindMissingArguments)
}

// IsAmbiguousMode returns true if the error is an ambiguous-mode error.
func IsAmbiguousMode(err error) bool {
	return hasKind(err, ErrorKindAmbiguousMode)
}

// IsUnknownCollection returns true if the error is an unknown-collection error.
func IsUnknownCollection(err error) bool {
	return hasKind(err, ErrorKindUnknownCollection)
}

// IsDuplicateIdentity returns true if the error is a duplicate-identity error.
func IsDuplicateIdentity(err error) bool {
	return hasKind(err, ErrorKindDuplicateIdentity)
}

// IsInvalidRecord returns true if the error is an invalid-record error.
func IsInvalidRecord(err error) bool {
	return hasKind(err, ErrorKindInvalidRecord)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *SeedError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
