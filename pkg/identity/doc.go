// Package identity provides the account subsystem consumed by the seeding
// engine. Identity records are created here, never by raw collection
// insertion: credentials are bcrypt-hashed and emails are kept unique.
// Role assignment is an optional collaborator with a store-backed default.
package identity
