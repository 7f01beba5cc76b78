// Package seedscript evaluates Starlark scripts that define record
// generators for seed runs.
//
// A generator script declares a function generate(i) returning a dict; the
// engine calls it once per index from 0 to minCount-1. Scripts run in a
// sandboxed thread with a hard timeout and no filesystem or network access.
package seedscript
