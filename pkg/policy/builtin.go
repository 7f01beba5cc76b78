package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		protectedEnvironmentPolicy(),
		oversizedRunPolicy(),
	}
}

// protectedEnvironmentPolicy blocks seeding in production-like environments.
// Requests that genuinely need it must disable the policy explicitly; an
// allow-list on the request alone is not enough to seed production.
func protectedEnvironmentPolicy() Policy {
	return Policy{
		Name:        "protected-environments",
		Description: "Denies seed runs in production-like environments",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"environment", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package seedbed.policies.environment

import rego.v1

protected := {"production", "prod"}

deny contains violation if {
	input.environment in protected
	violation := {
		"message": sprintf("seeding is not permitted in environment '%s'", [input.environment]),
		"severity": "error",
	}
}
`,
	}
}

// oversizedRunPolicy catches runaway generated counts. Seed data is meant
// to be small enough to hold in memory.
func oversizedRunPolicy() Policy {
	return Policy{
		Name:        "oversized-run",
		Description: "Denies seed runs requesting an implausibly large record count",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"volume", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package seedbed.policies.volume

import rego.v1

limit := 100000

deny contains violation if {
	input.count > limit
	violation := {
		"message": sprintf("seed run of %d records exceeds the limit of %d", [input.count, limit]),
		"severity": "error",
	}
}
`,
	}
}
