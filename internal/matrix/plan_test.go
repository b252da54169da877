package matrix

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"relcheck/internal/config"
)

func sampleMatrix() config.MatrixSection {
	return config.MatrixSection{
		Versions: map[string]string{
			"3.11": "py311",
			"3.12": "py312",
			"3.13": "py312",
		},
		Environments: map[string]config.EnvironmentSpec{
			"py311": {Env: map[string]string{"PYTHON": "python3.11"}},
			"py312": {Test: "pytest -q"},
			"style": {Advisory: true, Test: "flake8 pkg"},
		},
		Setup: "pip install -e .",
		Test:  "pytest -x",
	}
}

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan(sampleMatrix(), nil)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	var names []string
	for _, env := range plan.Environments {
		names = append(names, env.Name)
	}
	if diff := cmp.Diff([]string{"py311", "py312", "style"}, names); diff != "" {
		t.Fatalf("environment order mismatch (-want +got):\n%s", diff)
	}

	py311 := plan.Environments[0]
	if diff := cmp.Diff([]string{"3.11"}, py311.Labels); diff != "" {
		t.Errorf("py311 labels mismatch (-want +got):\n%s", diff)
	}
	if py311.Test != "pytest -x" {
		t.Errorf("py311 test = %q, want default", py311.Test)
	}
	if py311.Setup != "pip install -e ." {
		t.Errorf("py311 setup = %q, want default", py311.Setup)
	}

	py312 := plan.Environments[1]
	if diff := cmp.Diff([]string{"3.12", "3.13"}, py312.Labels); diff != "" {
		t.Errorf("py312 labels mismatch (-want +got):\n%s", diff)
	}
	if py312.Test != "pytest -q" {
		t.Errorf("py312 test = %q, want override", py312.Test)
	}

	if !plan.Environments[2].Advisory {
		t.Error("style environment should be advisory")
	}
}

func TestNewPlan_OnlyFilter(t *testing.T) {
	plan, err := NewPlan(sampleMatrix(), []string{"py312"})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if len(plan.Environments) != 1 || plan.Environments[0].Name != "py312" {
		t.Fatalf("plan = %+v, want only py312", plan.Environments)
	}
}

func TestNewPlan_UnknownOnly(t *testing.T) {
	if _, err := NewPlan(sampleMatrix(), []string{"py399"}); err == nil {
		t.Fatal("expected error for undeclared environment")
	}
}

func TestNewPlan_Empty(t *testing.T) {
	if _, err := NewPlan(config.MatrixSection{}, nil); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantOK  bool
	}{
		{
			name: "all passed",
			results: []Result{
				{Env: "a", Outcome: OutcomePassed},
				{Env: "b", Outcome: OutcomePassed},
			},
			wantOK: true,
		},
		{
			name: "one failed",
			results: []Result{
				{Env: "a", Outcome: OutcomePassed},
				{Env: "b", Outcome: OutcomeFailed},
			},
			wantOK: false,
		},
		{
			name: "advisory failure does not fail the aggregate",
			results: []Result{
				{Env: "a", Outcome: OutcomePassed},
				{Env: "style", Outcome: OutcomeFailed, Advisory: true},
			},
			wantOK: true,
		},
		{
			name: "construction failure fails the aggregate",
			results: []Result{
				{Env: "a", Outcome: OutcomeSetupFailed},
			},
			wantOK: false,
		},
		{
			name: "cancelled environment fails the aggregate",
			results: []Result{
				{Env: "a", Outcome: OutcomePassed},
				{Env: "b", Outcome: OutcomeCancelled},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.results).OK(); got != tt.wantOK {
				t.Errorf("OK() = %v, want %v", got, tt.wantOK)
			}
		})
	}
}
