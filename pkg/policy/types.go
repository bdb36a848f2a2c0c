package policy

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that block the run.
	SeverityError Severity = "error"

	// SeverityCritical is for violations that must never be overridden.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether a violation at this severity denies the run.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Domain is the domain the violation is scoped to, if any.
	Domain string `json:"domain,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the outcome of gating one run.
type Result struct {
	// Allowed indicates if the run may proceed.
	Allowed bool `json:"allowed"`

	// Violations lists blocking violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists non-blocking violations.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation happened.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// DenialError is returned by the gate when a run is denied. It carries the
// blocking violations so callers can render them.
type DenialError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *DenialError) Error() string {
	if len(e.Violations) == 0 {
		return "run denied by policy"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Policy, v.Message)
	}
	return fmt.Sprintf("run denied by policy: %s", strings.Join(msgs, "; "))
}

// Input is the document handed to Rego for evaluation. It is a flattened,
// JSON-friendly view of the run spec.
type Input struct {
	// Device describes the target device.
	Device DeviceInput `json:"device"`

	// Domains holds one entry per domain present in the document.
	Domains []DomainInput `json:"domains"`

	// RandomItems is the total count of randomly generated items the run
	// would produce across all domains.
	RandomItems int `json:"random_items"`
}

// DeviceInput describes the target device for policy evaluation.
type DeviceInput struct {
	// Serial is the device serial, empty for the default device.
	Serial string `json:"serial"`

	// Physical is true when the serial does not look like an emulator.
	Physical bool `json:"physical"`

	// AllowDestructive is the caller's override for clears on physical
	// devices.
	AllowDestructive bool `json:"allow_destructive"`
}

// DomainInput describes one domain of the run for policy evaluation.
type DomainInput struct {
	// Name is the domain name.
	Name string `json:"name"`

	// Clears is true when the domain requests any clear directive.
	Clears bool `json:"clears"`

	// Rejected is true when the domain payload failed validation.
	Rejected bool `json:"rejected"`

	// RandomItems counts the randomly generated items this domain would
	// produce.
	RandomItems int `json:"random_items"`
}
