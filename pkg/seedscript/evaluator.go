package seedscript

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/seedbed/seedbed/pkg/document"
)

// GenerateFunc is the required entry point of a generator script.
const GenerateFunc = "generate"

// Evaluator loads and executes Starlark generator scripts.
type Evaluator struct {
	timeout time.Duration
}

// NewEvaluator creates a new evaluator. A zero timeout selects the default
// of 30 seconds per generate call.
func NewEvaluator(timeout time.Duration) *Evaluator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Evaluator{
		timeout: timeout,
	}
}

// Generator is a compiled generator script ready to produce records.
type Generator struct {
	evaluator *Evaluator
	thread    *starlark.Thread
	fn        starlark.Callable
}

// LoadFile compiles a generator script from a .star file.
func (e *Evaluator) LoadFile(ctx context.Context, path string, vars map[string]interface{}) (*Generator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return e.Load(ctx, path, string(src), vars)
}

// Load compiles a generator script from source. The script must define a
// function generate(i) returning a dict. Entries of vars are exposed to the
// script as predeclared globals.
func (e *Evaluator) Load(ctx context.Context, name, src string, vars map[string]interface{}) (*Generator, error) {
	thread := &starlark.Thread{
		Name: "seedbed",
		Print: func(_ *starlark.Thread, msg string) {
			// Suppress print output from scripts
		},
	}

	predeclared := starlark.StringDict{
		"struct": starlarkstruct.Default,
	}
	predeclared["range"] = starlark.NewBuiltin("range", builtinRange)
	predeclared["enumerate"] = starlark.NewBuiltin("enumerate", builtinEnumerate)
	predeclared["zip"] = starlark.NewBuiltin("zip", builtinZip)

	for key, val := range vars {
		starlarkVal, err := toStarlarkValue(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert var %s: %w", key, err)
		}
		predeclared[key] = starlarkVal
	}

	globals, err := starlark.ExecFile(thread, name, src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}

	fn, ok := globals[GenerateFunc]
	if !ok {
		return nil, fmt.Errorf("script %s does not define %s", name, GenerateFunc)
	}
	callable, ok := fn.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s in script %s is not callable", GenerateFunc, name)
	}

	return &Generator{
		evaluator: e,
		thread:    thread,
		fn:        callable,
	}, nil
}

// Generate invokes the script's generate function for one index.
func (g *Generator) Generate(ctx context.Context, i int) (document.Record, error) {
	evalCtx, cancel := context.WithTimeout(ctx, g.evaluator.timeout)
	defer cancel()

	resultCh := make(chan document.Record, 1)
	errCh := make(chan error, 1)

	go func() {
		record, err := g.generateSync(i)
		if err != nil {
			errCh <- err
		} else {
			resultCh <- record
		}
	}()

	select {
	case <-evalCtx.Done():
		return nil, fmt.Errorf("generator timed out after %v at index %d", g.evaluator.timeout, i)
	case err := <-errCh:
		return nil, err
	case record := <-resultCh:
		return record, nil
	}
}

// Records invokes the generate function for indices 0 through n-1 and
// returns the produced records in order. Script errors surface here, before
// a run starts, rather than mid-insertion.
func (g *Generator) Records(ctx context.Context, n int) ([]document.Record, error) {
	records := make([]document.Record, 0, n)
	for i := 0; i < n; i++ {
		record, err := g.Generate(ctx, i)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// generateSync performs the actual Starlark invocation synchronously.
func (g *Generator) generateSync(i int) (document.Record, error) {
	args := starlark.Tuple{starlark.MakeInt(i)}
	value, err := starlark.Call(g.thread, g.fn, args, nil)
	if err != nil {
		return nil, fmt.Errorf("generate(%d) failed: %w", i, err)
	}

	goVal, err := fromStarlarkValue(value)
	if err != nil {
		return nil, fmt.Errorf("failed to convert generate(%d) result: %w", i, err)
	}

	record, ok := goVal.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("generate(%d) returned %s, want dict", i, value.Type())
	}

	return document.Record(record), nil
}

// toStarlarkValue converts a Go value to a Starlark value.
func toStarlarkValue(v interface{}) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []interface{}:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			starlarkItem, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = starlarkItem
		}
		return starlark.NewList(list), nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := toStarlarkValue(v)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), starlarkVal); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// fromStarlarkValue converts a Starlark value to a Go value.
func fromStarlarkValue(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer too large")
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		list := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, err := fromStarlarkValue(val.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case *starlark.Dict:
		dict := make(map[string]interface{})
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string")
			}
			value, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			dict[string(key)] = value
		}
		return dict, nil
	case *starlarkstruct.Struct:
		dict := make(map[string]interface{})
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				continue
			}
			value, err := fromStarlarkValue(attr)
			if err != nil {
				return nil, err
			}
			dict[name] = value
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
