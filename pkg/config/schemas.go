package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/seedbed/seedbed/pkg/document"
)

// SchemaRegistry manages CUE schemas constraining record shapes.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	// Identity records route through the auth subsystem and must at least
	// carry credentials.
	_ = sr.RegisterSchema(document.IdentityCollection, builtinIdentitySchema)

	return sr
}

// RegisterSchema compiles and registers a CUE schema for a collection.
func (sr *SchemaRegistry) RegisterSchema(collection, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", collection, err)
	}

	sr.schemas[document.Normalize(collection)] = val
	return nil
}

// HasSchema reports whether a schema is registered for a collection.
func (sr *SchemaRegistry) HasSchema(collection string) bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	_, ok := sr.schemas[document.Normalize(collection)]
	return ok
}

// ValidateRecord validates a record against the collection's schema.
// Collections without a registered schema accept any record.
func (sr *SchemaRegistry) ValidateRecord(ctx context.Context, collection string, record document.Record) error {
	sr.mu.RLock()
	schema, ok := sr.schemas[document.Normalize(collection)]
	sr.mu.RUnlock()
	if !ok {
		return nil
	}

	dataVal := sr.ctx.Encode(map[string]interface{}(record))
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("record does not match schema for %s: %w", collection, err)
	}

	return nil
}

// Collections returns all collections with a registered schema, sorted.
func (sr *SchemaRegistry) Collections() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const builtinIdentitySchema = `
{
	email:    string & =~"^[^@\\s]+@[^@\\s]+$"
	password: string & !=""
	roles?: [...string]
	profile?: {...}
	...
}
`
