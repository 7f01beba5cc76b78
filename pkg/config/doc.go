// Package config loads and validates seed plans.
//
// A seed plan is a YAML document naming the target environment, the store,
// the policy sources, and the collections to seed. Each collection carries
// either an inline fixed dataset or a reference to a Starlark generator
// script with a minimum count.
//
// The plan's environment may be overridden with the SEEDBED_ENV environment
// variable. Record shapes can additionally be constrained with per-collection
// CUE schemas managed by the SchemaRegistry.
package config
