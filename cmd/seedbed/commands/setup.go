package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seedbed/seedbed/pkg/config"
	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/identity"
	"github.com/seedbed/seedbed/pkg/policy"
	"github.com/seedbed/seedbed/pkg/seeder"
	"github.com/seedbed/seedbed/pkg/seedscript"
	"github.com/seedbed/seedbed/pkg/telemetry"
)

// runtime bundles everything a command needs to execute a seed plan.
type runtime struct {
	plan     *config.Plan
	planDir  string
	store    document.Store
	registry *document.Registry
	schemas  *config.SchemaRegistry
	policies *policy.Engine
	engine   *seeder.Engine
	tel      *telemetry.Telemetry
}

// buildRuntime loads a plan and wires the store, registry, schemas, policies
// and the seeding engine together.
func buildRuntime(ctx context.Context, planPath, metricsListen, traceExporter string) (*runtime, error) {
	plan, err := config.LoadPlan(planPath)
	if err != nil {
		return nil, err
	}

	tel, err := buildTelemetry(plan, metricsListen, traceExporter)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, plan.Store)
	if err != nil {
		return nil, err
	}

	registry := document.NewRegistry()
	schemas := config.NewSchemaRegistry()
	for i := range plan.Collections {
		c := &plan.Collections[i]
		registry.Register(c.Name)
		if c.Schema != "" {
			if err := schemas.RegisterSchema(c.Name, c.Schema); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
	}

	rt := &runtime{
		plan:     plan,
		planDir:  filepath.Dir(planPath),
		store:    store,
		registry: registry,
		schemas:  schemas,
		tel:      tel,
	}

	cfg := seeder.Config{
		Store:       store,
		Registry:    registry,
		Environment: plan.Environment,
		Roles:       identity.NewStoreRoleAssigner(store),
		Logger:      tel.Logger.Zerolog(),
		Metrics:     tel.Metrics,
		Tracer:      tel.Tracer,
	}

	if plan.Policies.Enabled {
		engine, err := policy.NewEngine(tel.Logger.Zerolog())
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if len(plan.Policies.Paths) > 0 {
			if err := engine.LoadPolicies(ctx, plan.Policies.Paths); err != nil {
				_ = store.Close()
				return nil, err
			}
			if plan.Policies.Watch {
				loader := policy.NewLoader(tel.Logger.Zerolog())
				if err := loader.Watch(ctx, plan.Policies.Paths, engine.Reload); err != nil {
					log.Warn().Err(err).Msg("Failed to watch policy paths")
				}
			}
		}
		rt.policies = engine
		cfg.Admission = engine
	}

	eng, err := seeder.New(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	rt.engine = eng

	return rt, nil
}

// buildTelemetry derives a telemetry stack from the plan and command flags.
func buildTelemetry(plan *config.Plan, metricsListen, traceExporter string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.Environment = plan.Environment
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsListen
	}
	if traceExporter != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = traceExporter
	}
	return telemetry.NewTelemetry(cfg)
}

// openStore opens the document store named by the plan.
func openStore(ctx context.Context, cfg config.StoreConfig) (document.Store, error) {
	switch cfg.Driver {
	case "memory":
		return document.NewMemoryStore(), nil
	case "sqlite", "":
		store, err := document.NewSQLiteStore(document.SQLiteConfig{Path: cfg.Path})
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// close releases the runtime's resources.
func (rt *runtime) close(ctx context.Context) {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}
	if rt.tel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.tel.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down telemetry")
		}
	}
}

// seedAll executes every collection of the plan in order and returns the
// per-collection results. The first failure aborts the remaining
// collections.
func (rt *runtime) seedAll(ctx context.Context) ([]*seeder.Result, error) {
	results := make([]*seeder.Result, 0, len(rt.plan.Collections))

	for i := range rt.plan.Collections {
		c := &rt.plan.Collections[i]

		opts, err := rt.collectionOptions(ctx, c)
		if err != nil {
			return results, fmt.Errorf("collection %s: %w", c.Name, err)
		}

		result, err := rt.engine.Seed(ctx, c.Name, opts)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if count, err := rt.store.Count(ctx, document.Handle{Name: result.Collection}); err == nil {
			rt.tel.Metrics.SetCollectionRecords(result.Collection, count)
		}
	}

	return results, nil
}

// collectionOptions builds the seed options for one plan entry, loading and
// materializing the generator script when one is referenced. Records are
// checked against the collection's schema before any insertion.
func (rt *runtime) collectionOptions(ctx context.Context, c *config.CollectionPlan) (seeder.Options, error) {
	opts := seeder.Options{
		AllowedEnvironments: c.AllowedEnvironments,
	}

	switch {
	case len(c.Records) > 0:
		if err := rt.validateRecords(ctx, c.Name, c.Records); err != nil {
			return opts, err
		}
		opts.Records = c.Records

	case c.Generator != nil:
		script := c.Generator.Script
		if !filepath.IsAbs(script) {
			script = filepath.Join(rt.planDir, script)
		}

		evaluator := seedscript.NewEvaluator(0)
		gen, err := evaluator.LoadFile(ctx, script, c.Generator.Vars)
		if err != nil {
			return opts, err
		}

		records, err := gen.Records(ctx, c.Generator.MinCount)
		if err != nil {
			return opts, err
		}
		if err := rt.validateRecords(ctx, c.Name, records); err != nil {
			return opts, err
		}

		opts.Generator = func(i int) document.Record { return records[i] }
		opts.MinCount = c.Generator.MinCount
	}

	return opts, nil
}

// validateRecords applies the collection's schema to each record.
func (rt *runtime) validateRecords(ctx context.Context, collection string, records []document.Record) error {
	if !rt.schemas.HasSchema(collection) {
		return nil
	}
	for i, rec := range records {
		if err := rt.schemas.ValidateRecord(ctx, collection, rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
