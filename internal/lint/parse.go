package lint

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// findingLine matches the conventional checker output format
// "path:line:col: CODE message" (the column is optional in some checkers).
var findingLine = regexp.MustCompile(`^(.+?):(\d+):(?:(\d+):)?\s*([A-Z]+\d+)\s+(.*)$`)

// ParseFindings parses checker output into findings. Lines that do not look
// like diagnostics (progress noise, blank lines) are skipped.
func ParseFindings(out string) []Finding {
	var findings []Finding
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := findingLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col := 0
		if m[3] != "" {
			col, _ = strconv.Atoi(m[3])
		}
		findings = append(findings, Finding{
			Path:    m[1],
			Line:    line,
			Col:     col,
			Code:    m[4],
			Message: strings.TrimSpace(m[5]),
		})
	}
	return findings
}

// attachSource fills each finding's Source with the referenced line so the
// console can show the offending code in context. Unreadable files are left
// without source; the finding itself still stands.
func attachSource(dir string, findings []Finding) {
	lines := make(map[string][]string)
	for i := range findings {
		f := &findings[i]
		if f.Line <= 0 {
			continue
		}
		cached, ok := lines[f.Path]
		if !ok {
			cached = readLines(resolvePath(dir, f.Path))
			lines[f.Path] = cached
		}
		if f.Line <= len(cached) {
			f.Source = strings.TrimRight(cached[f.Line-1], "\r\n")
		}
	}
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func readLines(path string) []string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Split(string(raw), "\n")
}
