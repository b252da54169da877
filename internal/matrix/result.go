package matrix

import "time"

// Outcome classifies a single environment run.
type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeFailed      Outcome = "failed"
	OutcomeSetupFailed Outcome = "environment-construction-failed"
	OutcomeTimedOut    Outcome = "timed-out"
	OutcomeCancelled   Outcome = "cancelled"
)

// Result is the outcome of one environment run. It is emitted by the
// scheduler and consumed by the output sinks and the aggregate.
type Result struct {
	Env      string        `json:"env"`
	Labels   []string      `json:"labels,omitempty"`
	Advisory bool          `json:"advisory,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration_ns"`

	// Reason explains non-passing outcomes in one line.
	Reason string `json:"reason,omitempty"`

	// Report is the tail of the environment's combined output, kept only
	// for non-passing outcomes so each failure carries its own report.
	Report string `json:"report,omitempty"`
}

// Summary aggregates a finished (or aborted) run.
type Summary struct {
	Passed    int
	Failed    int
	Advisory  int
	Cancelled int
	Total     int
}

// Failed environments fail the aggregate unless advisory; cancelled
// environments also fail it (the run did not prove them green).
func Aggregate(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		switch {
		case r.Outcome == OutcomePassed:
			s.Passed++
		case r.Advisory:
			s.Advisory++
		case r.Outcome == OutcomeCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}
	}
	return s
}

// OK reports whether the aggregate is a success: every non-advisory
// environment passed.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Cancelled == 0
}
