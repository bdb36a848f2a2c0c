package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/droidseed/droidseed/pkg/spec"
)

// Status is the result status of one domain's configuration pass.
type Status string

const (
	// StatusApplied indicates every requested operation succeeded.
	StatusApplied Status = "applied"

	// StatusPartiallyApplied indicates some items were written and some
	// failed.
	StatusPartiallyApplied Status = "partially_applied"

	// StatusFailed indicates nothing was written: the spec was rejected,
	// the clear failed outright, or every item failed.
	StatusFailed Status = "failed"

	// StatusSkipped indicates the domain was not attempted, e.g. the
	// target app is not installed.
	StatusSkipped Status = "skipped"
)

// Validate checks that the status is one of the defined values.
func (s Status) Validate() error {
	switch s {
	case StatusApplied, StatusPartiallyApplied, StatusFailed, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid outcome status: %s", s)
	}
}

// MarshalJSON implements type-safe enum serialization.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements unmarshaling with validation.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Status(str)
	return s.Validate()
}

// OverallStatus is the aggregate status of a whole run.
type OverallStatus string

const (
	// OverallSuccess indicates every attempted domain applied cleanly.
	OverallSuccess OverallStatus = "success"

	// OverallPartialFailure indicates at least one domain failed but at
	// least one applied.
	OverallPartialFailure OverallStatus = "partial_failure"

	// OverallFailure indicates nothing applied, or the input was rejected
	// before any device mutation.
	OverallFailure OverallStatus = "failure"
)

// Validate checks that the overall status is one of the defined values.
func (s OverallStatus) Validate() error {
	switch s {
	case OverallSuccess, OverallPartialFailure, OverallFailure:
		return nil
	default:
		return fmt.Errorf("invalid overall status: %s", s)
	}
}

// ItemError records one failed operation inside a domain pass.
type ItemError struct {
	// Index is the zero-based index of the failing item, or -1 for the
	// clear step.
	Index int `json:"index"`

	// Op names the failing operation, e.g. "add_contact" or "clear".
	Op string `json:"op"`

	// Cause is the failure message.
	Cause string `json:"cause"`
}

// DomainOutcome is the result of applying one domain spec.
type DomainOutcome struct {
	// Domain is the domain this outcome belongs to.
	Domain spec.Domain `json:"domain"`

	// Status is the outcome status.
	Status Status `json:"status"`

	// ItemsWritten counts items successfully written.
	ItemsWritten int `json:"items_written"`

	// ItemsTotal counts items that were attempted.
	ItemsTotal int `json:"items_total"`

	// Cleared reports whether the clear step ran and succeeded.
	Cleared bool `json:"cleared,omitempty"`

	// Errors lists the operation-level failures, in occurrence order.
	Errors []ItemError `json:"errors,omitempty"`

	// Duration is the wall time spent on this domain.
	Duration time.Duration `json:"duration"`
}

// NewOutcome creates an outcome for a domain pass about to start.
func NewOutcome(d spec.Domain) *DomainOutcome {
	return &DomainOutcome{Domain: d}
}

// FailedOutcome creates an outcome for a domain that failed before any
// operation ran.
func FailedOutcome(d spec.Domain, err error) *DomainOutcome {
	return &DomainOutcome{
		Domain: d,
		Status: StatusFailed,
		Errors: []ItemError{{Index: -1, Op: "parse", Cause: err.Error()}},
	}
}

// SkippedOutcome creates an outcome for a domain that was not attempted.
func SkippedOutcome(d spec.Domain, reason string) *DomainOutcome {
	return &DomainOutcome{
		Domain: d,
		Status: StatusSkipped,
		Errors: []ItemError{{Index: -1, Op: "setup", Cause: reason}},
	}
}

// RecordError appends an operation-level failure.
func (o *DomainOutcome) RecordError(op string, index int, err error) {
	o.Errors = append(o.Errors, ItemError{Index: index, Op: op, Cause: err.Error()})
}

// Finalize derives the outcome status from the recorded operations. Safe to
// call once, after the last operation.
func (o *DomainOutcome) Finalize() {
	switch {
	case len(o.Errors) == 0:
		o.Status = StatusApplied
	case o.ItemsWritten > 0:
		o.Status = StatusPartiallyApplied
	default:
		o.Status = StatusFailed
	}
}

// RunReport is the terminal artifact of one run: every attempted domain's
// outcome plus the aggregate status.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Source is the spec document the run was built from, if known.
	Source string `json:"source,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// Outcomes holds one entry per attempted domain, in canonical order.
	Outcomes []DomainOutcome `json:"outcomes"`

	// Overall is the aggregate run status.
	Overall OverallStatus `json:"overall"`

	// PreflightError is set when the run was rejected before any device
	// mutation (malformed input or a policy denial).
	PreflightError string `json:"preflight_error,omitempty"`
}

// Outcome returns the outcome for a domain, or nil if it was not attempted.
func (r *RunReport) Outcome(d spec.Domain) *DomainOutcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Domain == d {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// ItemsWritten totals successfully written items across all domains.
func (r *RunReport) ItemsWritten() int {
	total := 0
	for i := range r.Outcomes {
		total += r.Outcomes[i].ItemsWritten
	}
	return total
}
