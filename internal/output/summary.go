package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"relcheck/internal/lint"
	"relcheck/internal/matrix"
)

// GateStatus is one line of the final workflow summary: a named gate and
// whether it held.
type GateStatus struct {
	Name   string
	Passed bool
	Detail string

	// Advisory gates are reported but never decide the workflow outcome.
	Advisory bool
}

var (
	passColor     = color.New(color.FgGreen, color.Bold)
	failColor     = color.New(color.FgRed, color.Bold)
	advisoryColor = color.New(color.FgYellow)
	headerColor   = color.New(color.Bold)
)

// PrintSummary writes the final human-readable summary: every gate, every
// environment outcome, and the aggregate verdict. Nothing is silently
// swallowed: cancelled and errored environments are enumerated like the
// rest.
func PrintSummary(w io.Writer, gates []GateStatus, results []matrix.Result) {
	if len(gates) > 0 {
		headerColor.Fprintln(w, "Gates:")
		for _, g := range gates {
			var status string
			switch {
			case g.Advisory:
				status = advisoryColor.Sprint("advisory")
			case g.Passed:
				status = passColor.Sprint("PASS")
			default:
				status = failColor.Sprint("FAIL")
			}
			fmt.Fprintf(w, "  %-18s %s", g.Name, status)
			if g.Detail != "" {
				fmt.Fprintf(w, "  (%s)", g.Detail)
			}
			fmt.Fprintln(w)
		}
	}

	if len(results) > 0 {
		sorted := append([]matrix.Result(nil), results...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Env < sorted[j].Env })

		headerColor.Fprintln(w, "Environments:")
		for _, r := range sorted {
			fmt.Fprintf(w, "  %-18s %s  (%s)", r.Env, colorizeOutcome(r), r.Duration.Truncate(time.Millisecond))
			if r.Reason != "" {
				fmt.Fprintf(w, "  %s", r.Reason)
			}
			fmt.Fprintln(w)
		}

		s := matrix.Aggregate(results)
		verdict := passColor.Sprint("PASS")
		if !s.OK() {
			verdict = failColor.Sprint("FAIL")
		}
		fmt.Fprintf(w, "aggregate: %s (%d passed, %d failed, %d advisory, %d cancelled)\n",
			verdict, s.Passed, s.Failed, s.Advisory, s.Cancelled)
	}
}

func colorizeOutcome(r matrix.Result) string {
	switch {
	case r.Outcome == matrix.OutcomePassed:
		return passColor.Sprint(string(r.Outcome))
	case r.Advisory:
		return advisoryColor.Sprint(string(r.Outcome))
	default:
		return failColor.Sprint(string(r.Outcome))
	}
}

// PrintLintReport writes a lint pass's findings with source context and the
// per-code counts.
func PrintLintReport(w io.Writer, report *lint.Report) {
	label := "strict"
	render := failColor
	if report.Mode == lint.ModePermissive {
		label = "permissive"
		render = advisoryColor
	}

	if !report.HasFindings() {
		fmt.Fprintf(w, "lint (%s): no findings\n", label)
		return
	}

	headerColor.Fprintf(w, "lint (%s): %d finding(s)\n", label, len(report.Findings))
	for _, f := range report.Findings {
		loc := fmt.Sprintf("%s:%d", f.Path, f.Line)
		if f.Col > 0 {
			loc = fmt.Sprintf("%s:%d", loc, f.Col)
		}
		fmt.Fprintf(w, "  %s: %s %s\n", loc, render.Sprint(f.Code), f.Message)
		if f.Source != "" {
			fmt.Fprintf(w, "      %s\n", strings.TrimSpace(f.Source))
		}
	}

	fmt.Fprint(w, "  counts:")
	for _, code := range report.SortedCodes() {
		fmt.Fprintf(w, " %s=%d", code, report.Counts[code])
	}
	fmt.Fprintln(w)
}
