package document

import (
	"context"
	"sort"
	"unicode"
	"unicode/utf8"
)

// IdentityCollection is the reserved name of the system identity collection.
// Records seeded into it must be created through the identity subsystem,
// never by raw insertion.
const IdentityCollection = "Users"

// Record is an opaque document: a mapping from field name to value.
type Record map[string]any

// Handle is an ownership-free, by-name reference to a collection.
// Handles are resolved once per request and never cached across requests.
type Handle struct {
	Name string
}

// IsIdentity reports whether the handle refers to the identity collection.
func (h Handle) IsIdentity() bool {
	return h.Name == IdentityCollection
}

// Registry maps collection names to handles. It is constructed at startup
// and injected into the engine; there is no ambient global lookup.
type Registry struct {
	names map[string]struct{}
}

// NewRegistry creates a registry containing the given collection names.
// The identity collection is always registered.
func NewRegistry(names ...string) *Registry {
	r := &Registry{names: make(map[string]struct{}, len(names)+1)}
	r.Register(IdentityCollection)
	for _, name := range names {
		r.Register(name)
	}
	return r
}

// Register adds a collection name to the registry. Names are stored in
// normalized form.
func (r *Registry) Register(name string) {
	r.names[Normalize(name)] = struct{}{}
}

// Resolve maps a collection name (case-insensitive on the first rune) to
// a handle. The second return value is false if the name is not registered.
func (r *Registry) Resolve(name string) (Handle, bool) {
	normalized := Normalize(name)
	if _, ok := r.names[normalized]; !ok {
		return Handle{}, false
	}
	return Handle{Name: normalized}, true
}

// Names returns all registered collection names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize capitalizes the first rune of a collection name, so that
// "products" and "Products" address the same collection.
func Normalize(name string) string {
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}

// Store is the storage backend capability consumed by the seeding engine.
// Implementations must preserve insertion order within a collection.
type Store interface {
	// Count returns the number of records in the collection.
	Count(ctx context.Context, h Handle) (int, error)

	// Insert stores a record and returns its identifier. If the record
	// carries an "_id" field it is used as the identifier.
	Insert(ctx context.Context, h Handle, rec Record) (string, error)

	// FindOne returns the first record whose field equals value.
	// The boolean is false when no record matches.
	FindOne(ctx context.Context, h Handle, field string, value any) (Record, bool, error)

	// List returns all records in the collection in insertion order.
	List(ctx context.Context, h Handle) ([]Record, error)

	// Close releases backend resources.
	Close() error
}
