package config

import (
	"context"
	"testing"

	"github.com/seedbed/seedbed/pkg/document"
)

func TestSchemaRegistry_IdentityBuiltin(t *testing.T) {
	sr := NewSchemaRegistry()

	if !sr.HasSchema("Users") {
		t.Fatal("Identity schema should be registered by default")
	}

	valid := document.Record{
		"email":    "admin@example.com",
		"password": "changeme",
		"roles":    []interface{}{"admin"},
	}
	if err := sr.ValidateRecord(context.Background(), "Users", valid); err != nil {
		t.Errorf("Valid identity rejected: %v", err)
	}

	tests := []struct {
		name   string
		record document.Record
	}{
		{name: "missing email", record: document.Record{"password": "changeme"}},
		{name: "missing password", record: document.Record{"email": "a@b.com"}},
		{name: "empty password", record: document.Record{"email": "a@b.com", "password": ""}},
		{name: "malformed email", record: document.Record{"email": "not-an-email", "password": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sr.ValidateRecord(context.Background(), "Users", tt.record); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSchemaRegistry_NormalizesCollection(t *testing.T) {
	sr := NewSchemaRegistry()

	// Lowercase lookups hit the same schema as the normalized name.
	if !sr.HasSchema("users") {
		t.Error("Schema lookup should normalize the collection name")
	}

	err := sr.ValidateRecord(context.Background(), "users", document.Record{"email": "x", "password": ""})
	if err == nil {
		t.Error("Expected validation error through the normalized lookup")
	}
}

func TestSchemaRegistry_CustomSchema(t *testing.T) {
	sr := NewSchemaRegistry()

	schema := `
{
	name:  string & !=""
	price: number & >=0
	...
}
`
	if err := sr.RegisterSchema("products", schema); err != nil {
		t.Fatalf("RegisterSchema failed: %v", err)
	}

	ok := document.Record{"name": "item0", "price": 0}
	if err := sr.ValidateRecord(context.Background(), "Products", ok); err != nil {
		t.Errorf("Valid product rejected: %v", err)
	}

	bad := document.Record{"name": "item1", "price": -5}
	if err := sr.ValidateRecord(context.Background(), "Products", bad); err == nil {
		t.Error("Negative price should be rejected")
	}
}

func TestSchemaRegistry_UnknownCollectionAcceptsAll(t *testing.T) {
	sr := NewSchemaRegistry()

	err := sr.ValidateRecord(context.Background(), "Anything", document.Record{"whatever": true})
	if err != nil {
		t.Errorf("Collections without a schema should accept any record: %v", err)
	}
}

func TestSchemaRegistry_BadSchema(t *testing.T) {
	sr := NewSchemaRegistry()

	if err := sr.RegisterSchema("broken", `{ name: string &`); err == nil {
		t.Error("Expected compile error for malformed schema")
	}
}

func TestSchemaRegistry_Collections(t *testing.T) {
	sr := NewSchemaRegistry()
	if err := sr.RegisterSchema("products", `{...}`); err != nil {
		t.Fatalf("RegisterSchema failed: %v", err)
	}

	names := sr.Collections()
	if len(names) != 2 {
		t.Fatalf("Expected 2 schemas, got %d: %v", len(names), names)
	}
	if names[0] != "Products" || names[1] != "Users" {
		t.Errorf("Collections = %v", names)
	}
}
