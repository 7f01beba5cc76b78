package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/seedbed/seedbed/pkg/document"
)

// EnvironmentVar is the environment variable that overrides the plan's
// environment value.
const EnvironmentVar = "SEEDBED_ENV"

// DefaultEnvironment is used when neither the plan nor SEEDBED_ENV names one.
const DefaultEnvironment = "development"

// Plan is a parsed seed plan.
type Plan struct {
	// Environment names the runtime environment this plan targets.
	Environment string `yaml:"environment"`

	// Store configures the backing document store.
	Store StoreConfig `yaml:"store"`

	// Policies configures admission policy sources.
	Policies PolicyConfig `yaml:"policies"`

	// Collections lists the collections to seed, in order.
	Collections []CollectionPlan `yaml:"collections" validate:"required,min=1,dive"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Driver is the store driver, sqlite or memory.
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite memory"`

	// Path is the database file path for the sqlite driver.
	Path string `yaml:"path"`
}

// PolicyConfig configures admission policy loading.
type PolicyConfig struct {
	// Enabled turns policy-based admission on.
	Enabled bool `yaml:"enabled"`

	// Paths lists .rego or .json policy files or directories.
	Paths []string `yaml:"paths"`

	// Watch reloads policies when a source file changes.
	Watch bool `yaml:"watch"`
}

// CollectionPlan describes one collection to seed.
type CollectionPlan struct {
	// Name is the collection name, normalized by the engine.
	Name string `yaml:"name" validate:"required"`

	// AllowedEnvironments restricts the environments this collection may be
	// seeded in. Empty permits all environments.
	AllowedEnvironments []string `yaml:"allowedEnvironments"`

	// Records is the inline fixed dataset.
	Records []document.Record `yaml:"records"`

	// Generator references a Starlark generator script.
	Generator *GeneratorPlan `yaml:"generator"`

	// Schema is an optional CUE schema source constraining record shapes.
	Schema string `yaml:"schema"`
}

// GeneratorPlan references a Starlark record generator.
type GeneratorPlan struct {
	// Script is the path to a .star file defining generate(i).
	Script string `yaml:"script" validate:"required"`

	// MinCount is the number of records the collection should hold.
	MinCount int `yaml:"minCount" validate:"required,gt=0"`

	// Vars are exposed to the script as predeclared globals.
	Vars map[string]interface{} `yaml:"vars"`
}

// LoadPlan reads, parses and validates a seed plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan parses and validates a seed plan from YAML bytes.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	plan.Environment = resolveEnvironment(plan.Environment)
	if plan.Store.Driver == "" {
		plan.Store.Driver = "sqlite"
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return &plan, nil
}

// Validate checks the plan's structure.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("plan validation failed: %w", err)
	}

	if p.Store.Driver == "sqlite" && p.Store.Path == "" {
		return fmt.Errorf("plan validation failed: store.path is required for the sqlite driver")
	}

	seen := make(map[string]string, len(p.Collections))
	for i := range p.Collections {
		c := &p.Collections[i]
		normalized := document.Normalize(c.Name)
		if prev, dup := seen[normalized]; dup {
			return fmt.Errorf("plan validation failed: collections %q and %q resolve to the same name %q", prev, c.Name, normalized)
		}
		seen[normalized] = c.Name

		if len(c.Records) > 0 && c.Generator != nil {
			return fmt.Errorf("collection %s: records and generator are mutually exclusive", c.Name)
		}
		if len(c.Records) == 0 && c.Generator == nil {
			return fmt.Errorf("collection %s: one of records or generator is required", c.Name)
		}
	}

	return nil
}

// resolveEnvironment applies the SEEDBED_ENV override and the default.
func resolveEnvironment(planned string) string {
	if env := os.Getenv(EnvironmentVar); env != "" {
		return env
	}
	if planned != "" {
		return planned
	}
	return DefaultEnvironment
}

var validate = validator.New()
