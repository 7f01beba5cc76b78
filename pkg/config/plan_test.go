package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPlan = `
environment: staging
store:
  driver: sqlite
  path: seedbed.db
policies:
  enabled: true
  paths:
    - policies/
collections:
  - name: products
    allowedEnvironments:
      - staging
      - development
    generator:
      script: products.star
      minCount: 5
  - name: users
    records:
      - email: admin@example.com
        password: changeme
        roles:
          - admin
`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(validPlan))
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}

	if plan.Environment != "staging" {
		t.Errorf("Environment = %q, want staging", plan.Environment)
	}
	if plan.Store.Driver != "sqlite" || plan.Store.Path != "seedbed.db" {
		t.Errorf("Store = %+v", plan.Store)
	}
	if !plan.Policies.Enabled || len(plan.Policies.Paths) != 1 {
		t.Errorf("Policies = %+v", plan.Policies)
	}
	if len(plan.Collections) != 2 {
		t.Fatalf("Expected 2 collections, got %d", len(plan.Collections))
	}

	products := plan.Collections[0]
	if products.Generator == nil || products.Generator.MinCount != 5 {
		t.Errorf("products generator = %+v", products.Generator)
	}
	if len(products.AllowedEnvironments) != 2 {
		t.Errorf("products allowedEnvironments = %v", products.AllowedEnvironments)
	}

	users := plan.Collections[1]
	if len(users.Records) != 1 {
		t.Fatalf("Expected 1 user record, got %d", len(users.Records))
	}
	if users.Records[0]["email"] != "admin@example.com" {
		t.Errorf("user email = %v", users.Records[0]["email"])
	}
}

func TestParsePlan_EnvironmentOverride(t *testing.T) {
	t.Setenv(EnvironmentVar, "production")

	plan, err := ParsePlan([]byte(validPlan))
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if plan.Environment != "production" {
		t.Errorf("Environment = %q, want production", plan.Environment)
	}
}

func TestParsePlan_DefaultEnvironment(t *testing.T) {
	raw := `
store:
  driver: memory
collections:
  - name: tags
    records:
      - label: alpha
`
	plan, err := ParsePlan([]byte(raw))
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if plan.Environment != DefaultEnvironment {
		t.Errorf("Environment = %q, want %q", plan.Environment, DefaultEnvironment)
	}
}

func TestParsePlan_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name: "no collections",
			raw: `
store:
  driver: memory
collections: []
`,
			wantErr: "validation failed",
		},
		{
			name: "both records and generator",
			raw: `
store:
  driver: memory
collections:
  - name: products
    records:
      - name: fixed
    generator:
      script: products.star
      minCount: 3
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "neither records nor generator",
			raw: `
store:
  driver: memory
collections:
  - name: products
`,
			wantErr: "one of records or generator",
		},
		{
			name: "generator without count",
			raw: `
store:
  driver: memory
collections:
  - name: products
    generator:
      script: products.star
`,
			wantErr: "validation failed",
		},
		{
			name: "sqlite without path",
			raw: `
store:
  driver: sqlite
collections:
  - name: tags
    records:
      - label: alpha
`,
			wantErr: "store.path",
		},
		{
			name: "colliding collection names",
			raw: `
store:
  driver: memory
collections:
  - name: products
    records:
      - name: a
  - name: Products
    records:
      - name: b
`,
			wantErr: "same name",
		},
		{
			name:    "malformed yaml",
			raw:     "collections: [",
			wantErr: "failed to parse plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.raw))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(validPlan), 0o644); err != nil {
		t.Fatalf("Failed to write plan: %v", err)
	}

	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}
	if len(plan.Collections) != 2 {
		t.Errorf("Expected 2 collections, got %d", len(plan.Collections))
	}
}

func TestLoadPlan_Missing(t *testing.T) {
	if _, err := LoadPlan("/does/not/exist.yaml"); err == nil {
		t.Fatal("Expected error for missing plan")
	}
}
