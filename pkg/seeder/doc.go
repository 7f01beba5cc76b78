// Package seeder implements the Seedbed engine: it populates a storage
// collection either from a fixed dataset or from a generative model invoked
// once per index, guaranteeing idempotent runs and restricting execution to
// an allow-list of deployment environments.
//
// A run proceeds through fixed stages: the collection name is resolved
// against an injected registry, the request shape is classified (fixed
// dataset or generative model), the environment gate and idempotency guard
// decide whether execution proceeds, and the executor inserts records in
// order, routing identity records through the identity subsystem. Skips due
// to gating are successful no-ops, never errors.
package seeder
