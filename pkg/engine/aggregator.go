package engine

// Aggregator merges per-domain outcomes into the run-level view. Pure and
// deterministic; the only algorithmic content is the overall status rule.
type Aggregator struct {
	outcomes []DomainOutcome
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends one domain outcome. Outcomes are kept in the order they
// are recorded, which the engine guarantees is canonical order.
func (a *Aggregator) Record(outcome *DomainOutcome) {
	a.outcomes = append(a.outcomes, *outcome)
}

// Outcomes returns the recorded outcomes.
func (a *Aggregator) Outcomes() []DomainOutcome {
	return a.outcomes
}

// Finalize derives the overall run status:
//
//   - success: every requested domain applied cleanly
//   - partial_failure: at least one domain did not apply and at least one did
//   - failure: nothing applied
//
// A skipped domain counts against success: the device never reached the
// requested state for it, even though nothing went wrong mechanically.
func (a *Aggregator) Finalize() OverallStatus {
	applied := 0
	unapplied := 0
	for i := range a.outcomes {
		if a.outcomes[i].Status == StatusApplied {
			applied++
		} else {
			unapplied++
		}
	}

	switch {
	case unapplied == 0:
		return OverallSuccess
	case applied > 0:
		return OverallPartialFailure
	default:
		return OverallFailure
	}
}
