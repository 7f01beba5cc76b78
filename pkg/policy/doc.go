// Package policy provides Rego-based admission control for seed runs.
//
// Policies extend the engine's environment gate: before a run executes,
// every enabled policy's deny rules are evaluated against an input of the
// form {collection, environment, mode, count}. A deny of severity error or
// critical causes the run to be skipped, with the same semantics as an
// environment-gate denial.
//
// Built-in policies guard protected environments and oversized runs;
// additional .rego files can be loaded from disk and optionally watched
// for changes.
package policy
