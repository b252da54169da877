package output

import (
	"relcheck/internal/lint"
	"relcheck/internal/matrix"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - lint.finished
// - env.started
// - env.result
// - run.finished
//
// JSON mode remains an aggregate of env results.
type Event struct {
	Type     string         `json:"type"`
	Env      string         `json:"env,omitempty"`
	Result   *matrix.Result `json:"result,omitempty"`
	Lint     *lint.Report   `json:"lint,omitempty"`
	Envs     int            `json:"envs,omitempty"`
	ExitCode int            `json:"exit_code,omitempty"`
}

func eventFromResult(r matrix.Result) Event {
	return Event{Type: "env.result", Env: r.Env, Result: &r}
}
