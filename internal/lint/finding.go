package lint

// Mode names the two lint policies.
type Mode string

const (
	// ModeStrict is the hard gate: a small fixed set of syntax-level error
	// codes; any finding fails the workflow.
	ModeStrict Mode = "strict"

	// ModePermissive is the advisory style pass: broader checks and a
	// larger line-length threshold; findings never fail the workflow.
	ModePermissive Mode = "permissive"
)

// Finding is one checker diagnostic.
type Finding struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Source is the offending source line, when it could be read.
	Source string `json:"source,omitempty"`
}

// Report aggregates one lint pass.
type Report struct {
	Mode     Mode           `json:"mode"`
	Findings []Finding      `json:"findings,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`

	// Fatal is set when the pass's policy fails on findings and there was
	// at least one. Strict findings are always fatal; permissive findings
	// never are.
	Fatal bool `json:"fatal"`
}

// HasFindings reports whether the pass produced any diagnostics.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}
