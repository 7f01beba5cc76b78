package seeder

import (
	"time"

	"github.com/seedbed/seedbed/pkg/document"
)

// Mode classifies the data source of a seed request.
type Mode string

const (
	// ModeFixed seeds from an explicit ordered dataset.
	ModeFixed Mode = "fixed"

	// ModeGenerated seeds from a generative model invoked once per index.
	ModeGenerated Mode = "generated"
)

// Generator is a caller-supplied generative model. It receives the record
// index and returns a fresh record; output may vary by index.
type Generator func(index int) document.Record

// Options describes the data source and gating of one seed request.
// Exactly one of Records and Generator must be set.
type Options struct {
	// Records is the fixed dataset, inserted in order. Fixed-dataset mode
	// seeds only an empty collection.
	Records []document.Record

	// Generator fabricates records by index. Generated mode tops the
	// collection up to MinCount records.
	Generator Generator

	// MinCount is the record floor for generated mode.
	MinCount int

	// AllowedEnvironments restricts execution to the named environments.
	// Empty means all environments are permitted. Comparison is exact.
	AllowedEnvironments []string
}

// classify validates the request shape. Both sources present is ambiguous;
// neither present is a caller mistake, not a silent no-op.
func (o Options) classify() (Mode, error) {
	hasRecords := o.Records != nil
	hasGenerator := o.Generator != nil

	switch {
	case hasRecords && hasGenerator:
		return "", NewAmbiguousModeError("options carry both a fixed dataset and a generator")
	case hasRecords:
		return ModeFixed, nil
	case hasGenerator:
		return ModeGenerated, nil
	default:
		return "", NewMissingArgumentsError("options carry neither a fixed dataset nor a generator")
	}
}

// length returns the iteration length for the classified mode.
func (o Options) length(mode Mode) int {
	if mode == ModeFixed {
		return len(o.Records)
	}
	return o.MinCount
}

// record returns the i-th record for the classified mode.
func (o Options) record(mode Mode, i int) document.Record {
	if mode == ModeFixed {
		return o.Records[i]
	}
	return o.Generator(i)
}

// SkipReason explains why a run performed zero insertions.
type SkipReason string

const (
	// SkipReasonEnvironment means the environment gate denied execution.
	SkipReasonEnvironment SkipReason = "environment"

	// SkipReasonAlreadySeeded means the idempotency guard found enough records.
	SkipReasonAlreadySeeded SkipReason = "already_seeded"

	// SkipReasonPolicy means an admission policy denied execution.
	SkipReasonPolicy SkipReason = "policy"
)

// Result reports the outcome of one seed run. Skipped runs are successes.
type Result struct {
	// Collection is the resolved collection name.
	Collection string `json:"collection"`

	// Mode is the classified data source.
	Mode Mode `json:"mode"`

	// Skipped is true when gating prevented execution.
	Skipped bool `json:"skipped"`

	// SkipReason explains a skip; empty when the run executed.
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Inserted is the number of records inserted directly.
	Inserted int `json:"inserted"`

	// Provisioned is the number of identities created through the identity
	// subsystem.
	Provisioned int `json:"provisioned"`

	// Existing is the number of identity records skipped because an identity
	// with the same email already existed.
	Existing int `json:"existing"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// identityRecord is the validated shape of a record destined for the
// identity collection.
type identityRecord struct {
	email    string
	password string
	profile  map[string]any
	roles    []string
}

// identityFromRecord extracts and structurally validates an identity record.
// Only identity records are validated; all other records are opaque.
func identityFromRecord(rec document.Record) (identityRecord, error) {
	email, _ := rec["email"].(string)
	password, _ := rec["password"].(string)
	if email == "" {
		return identityRecord{}, NewInvalidRecordError("identity record is missing an email identifier")
	}
	if password == "" {
		return identityRecord{}, NewInvalidRecordError("identity record is missing a credential")
	}

	out := identityRecord{email: email, password: password}

	if profile, ok := rec["profile"].(map[string]any); ok {
		out.profile = profile
	}

	switch roles := rec["roles"].(type) {
	case []string:
		out.roles = roles
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out.roles = append(out.roles, s)
			}
		}
	}

	return out, nil
}
