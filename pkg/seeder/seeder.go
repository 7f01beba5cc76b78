package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/identity"
	"github.com/seedbed/seedbed/pkg/telemetry"
)

// IdentityCreator is the authentication subsystem capability consumed by the
// engine. Identity records are created through it, never by raw insertion.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, email, password string, profile map[string]any) (string, error)
}

// AdmissionChecker extends the environment gate with policy decisions.
// A deny causes a silent skip, same semantics as the gate itself.
type AdmissionChecker interface {
	AdmitSeed(ctx context.Context, collection, environment string, mode string, count int) (bool, []string, error)
}

// Config holds the collaborators of an Engine. Store and Registry are
// required; everything else is optional.
type Config struct {
	// Store is the storage backend.
	Store document.Store

	// Registry is the explicit collection registry, built at startup.
	Registry *document.Registry

	// Environment is the runtime environment identifier compared against
	// each request's allow-list.
	Environment string

	// Identity creates identity records. Defaults to an identity.Manager
	// bound to the store.
	Identity IdentityCreator

	// Roles assigns roles to created identities. Nil is tolerated: role
	// assignment is then silently skipped.
	Roles identity.RoleAssigner

	// Admission, when set, can deny a run the way the environment gate does.
	Admission AdmissionChecker

	// Logger is used for run logging. Defaults to a disabled logger.
	Logger zerolog.Logger

	// Metrics records run metrics; nil is tolerated.
	Metrics *telemetry.Metrics

	// Tracer creates seed-run spans; nil is tolerated.
	Tracer *telemetry.Tracer
}

// Engine executes seed requests. It is safe to reuse across requests but
// runs are synchronous; callers must serialize concurrent runs against the
// same collection.
type Engine struct {
	store       document.Store
	registry    *document.Registry
	environment string
	identity    IdentityCreator
	roles       identity.RoleAssigner
	admission   AdmissionChecker
	logger      zerolog.Logger
	metrics     *telemetry.Metrics
	tracer      *telemetry.Tracer
}

// New creates an Engine from the given configuration. Construction never
// touches the store.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	ident := cfg.Identity
	if ident == nil {
		ident = identity.NewManager(cfg.Store)
	}

	return &Engine{
		store:       cfg.Store,
		registry:    cfg.Registry,
		environment: cfg.Environment,
		identity:    ident,
		roles:       cfg.Roles,
		admission:   cfg.Admission,
		logger:      cfg.Logger.With().Str("component", "seeder").Logger(),
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
	}, nil
}

// Seed populates one collection according to opts. It returns normally on
// success, including runs skipped by gating; it fails fast with a SeedError
// before any insertion for invalid requests.
func (e *Engine) Seed(ctx context.Context, collectionName string, opts Options) (result *Result, err error) {
	start := time.Now()

	if collectionName == "" {
		return nil, e.fail(NewMissingArgumentsError("collection name is required"))
	}

	// Resolve the target before anything else; an unresolved collection
	// must fail fast rather than proceed.
	handle, ok := e.registry.Resolve(collectionName)
	if !ok {
		return nil, e.fail(NewUnknownCollectionError(collectionName))
	}

	mode, err := opts.classify()
	if err != nil {
		var se *SeedError
		if errors.As(err, &se) {
			se.WithCollection(handle.Name)
		}
		return nil, e.fail(err)
	}

	runID := uuid.NewString()
	logger := e.logger.With().
		Str("run_id", runID).
		Str("collection", handle.Name).
		Str("mode", string(mode)).
		Logger()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.StartSeedSpan(ctx, runID, handle.Name, e.environment)
		span.SetAttributes(telemetry.AttrMode.String(string(mode)))
		defer func() {
			if err != nil {
				telemetry.RecordError(span, err)
			} else {
				telemetry.RecordSuccess(span)
				span.SetAttributes(telemetry.AttrInserted.Int(result.Inserted))
			}
			span.End()
		}()
	}

	e.metrics.RecordRunStarted(handle.Name)

	result = &Result{
		Collection: handle.Name,
		Mode:       mode,
	}

	// Environment gate
	if !environmentPermitted(opts.AllowedEnvironments, e.environment) {
		logger.Info().Str("environment", e.environment).Msg("Environment not in allow-list, skipping seed run")
		return e.skip(result, SkipReasonEnvironment, start)
	}

	// Admission policies, when configured, extend the gate.
	if e.admission != nil {
		allowed, reasons, err := e.admission.AdmitSeed(ctx, handle.Name, e.environment, string(mode), opts.length(mode))
		if err != nil {
			return nil, e.fail(fmt.Errorf("admission check failed: %w", err))
		}
		if !allowed {
			logger.Info().Strs("reasons", reasons).Msg("Admission policy denied seed run, skipping")
			return e.skip(result, SkipReasonPolicy, start)
		}
	}

	// Idempotency guard
	seeded, err := e.alreadySeeded(ctx, handle, mode, opts.MinCount)
	if err != nil {
		return nil, e.fail(err)
	}
	if seeded {
		logger.Debug().Msg("Collection already seeded, skipping")
		return e.skip(result, SkipReasonAlreadySeeded, start)
	}

	if err := e.execute(ctx, handle, mode, opts, result); err != nil {
		e.metrics.RecordRunCompleted(handle.Name, "failed", time.Since(start))
		return nil, e.fail(err)
	}

	result.Duration = time.Since(start)
	e.metrics.RecordRunCompleted(handle.Name, "seeded", result.Duration)
	e.metrics.RecordRecordsInserted(handle.Name, result.Inserted)

	logger.Info().
		Int("inserted", result.Inserted).
		Int("provisioned", result.Provisioned).
		Dur("duration", result.Duration).
		Msg("Seed run completed")

	return result, nil
}

// execute is the seed executor: it iterates the data source in order and
// performs per-record insertion, routing identity records through the
// provisioner. Insertion order equals generation order; there is no
// reordering and no parallel insertion, because generative models may vary
// output by index.
func (e *Engine) execute(ctx context.Context, h document.Handle, mode Mode, opts Options, result *Result) error {
	length := opts.length(mode)

	for i := 0; i < length; i++ {
		rec := opts.record(mode, i)

		if h.IsIdentity() {
			outcome, err := e.provisionIdentity(ctx, h, rec)
			if err != nil {
				return err
			}
			if outcome == provisionCreated {
				result.Provisioned++
				e.metrics.RecordIdentityProvisioned()
			} else {
				result.Existing++
				e.metrics.RecordIdentityExisting()
			}
			continue
		}

		if _, err := e.store.Insert(ctx, h, rec); err != nil {
			return fmt.Errorf("failed to insert record %d into %s: %w", i, h.Name, err)
		}
		result.Inserted++
	}

	return nil
}

// skip finalizes a gated no-op run. Skips are successes.
func (e *Engine) skip(result *Result, reason SkipReason, start time.Time) (*Result, error) {
	result.Skipped = true
	result.SkipReason = reason
	result.Duration = time.Since(start)
	e.metrics.RecordRunSkipped(result.Collection, string(reason))
	e.metrics.RecordRunCompleted(result.Collection, "skipped", result.Duration)
	return result, nil
}

// fail records an error metric and passes the error through.
func (e *Engine) fail(err error) error {
	var se *SeedError
	if errors.As(err, &se) {
		e.metrics.RecordError(string(se.Kind))
	} else {
		e.metrics.RecordError("internal")
	}
	return err
}
