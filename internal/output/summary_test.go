package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"relcheck/internal/lint"
	"relcheck/internal/matrix"
)

func init() {
	// Deterministic output regardless of the test terminal.
	color.NoColor = true
}

func TestPrintSummary_EnumeratesEverything(t *testing.T) {
	var buf bytes.Buffer
	gates := []GateStatus{
		{Name: "version-sync", Passed: true, Detail: "2.4.0"},
		{Name: "lint (strict)", Passed: true},
		{Name: "lint (style)", Passed: false, Advisory: true, Detail: "12 finding(s)"},
	}
	results := []matrix.Result{
		{Env: "py312", Outcome: matrix.OutcomeFailed, Reason: "test command failed"},
		{Env: "py311", Outcome: matrix.OutcomePassed},
		{Env: "py313", Outcome: matrix.OutcomeCancelled, Reason: "run cancelled"},
	}

	PrintSummary(&buf, gates, results)
	out := buf.String()

	for _, want := range []string{
		"version-sync", "lint (strict)", "lint (style)", "advisory",
		"py311", "py312", "py313",
		"passed", "failed", "cancelled",
		"aggregate: FAIL",
		"1 passed, 1 failed, 0 advisory, 1 cancelled",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Environments print in name order.
	if strings.Index(out, "py311") > strings.Index(out, "py312") {
		t.Errorf("environments out of order:\n%s", out)
	}
}

func TestPrintSummary_AllGreen(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, []GateStatus{{Name: "version-sync", Passed: true}}, []matrix.Result{
		{Env: "py311", Outcome: matrix.OutcomePassed},
	})
	if !strings.Contains(buf.String(), "aggregate: PASS") {
		t.Errorf("expected PASS aggregate:\n%s", buf.String())
	}
}

func TestPrintLintReport(t *testing.T) {
	var buf bytes.Buffer
	report := &lint.Report{
		Mode: lint.ModeStrict,
		Findings: []lint.Finding{
			{Path: "pkg/cli.py", Line: 3, Col: 7, Code: "F821", Message: "undefined name 'foo'", Source: "print(foo)"},
		},
		Counts: map[string]int{"F821": 1},
		Fatal:  true,
	}

	PrintLintReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"lint (strict): 1 finding(s)",
		"pkg/cli.py:3:7: F821 undefined name 'foo'",
		"print(foo)",
		"counts: F821=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintLintReport_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	PrintLintReport(&buf, &lint.Report{Mode: lint.ModePermissive})
	if !strings.Contains(buf.String(), "lint (permissive): no findings") {
		t.Errorf("got:\n%s", buf.String())
	}
}
