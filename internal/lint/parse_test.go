package lint

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFindings(t *testing.T) {
	out := `pkg/subtype.py:10:5: F821 undefined name 'kmer_counts'
pkg/cli.py:44:80: E501 line too long (93 > 79 characters)
pkg/qc.py:7: E999 SyntaxError: invalid syntax
checking 3 files...

done
`
	got := ParseFindings(out)
	want := []Finding{
		{Path: "pkg/subtype.py", Line: 10, Col: 5, Code: "F821", Message: "undefined name 'kmer_counts'"},
		{Path: "pkg/cli.py", Line: 44, Col: 80, Code: "E501", Message: "line too long (93 > 79 characters)"},
		{Path: "pkg/qc.py", Line: 7, Col: 0, Code: "E999", Message: "SyntaxError: invalid syntax"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFindings_Empty(t *testing.T) {
	if got := ParseFindings(""); len(got) != 0 {
		t.Errorf("expected no findings, got %v", got)
	}
}
