package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"relcheck/internal/config"
	"relcheck/internal/matrix"
)

// FileSink writes structured results to a file (--out).
//
// Formats:
//   - json: aggregates env results and writes a single JSON array on Close
//   - ndjson: streams Events (one JSON object per line)
type FileSink struct {
	path    string
	format  string
	file    *os.File
	mu      sync.Mutex
	results []matrix.Result
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if format == "" {
		inferred, err := config.InferOutFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{path: path, format: format, file: f}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(matrix.Result); ok {
			s.results = append(s.results, r)
		}
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.file)
		switch t := v.(type) {
		case Event:
			return encoder.Encode(t)
		case matrix.Result:
			return encoder.Encode(eventFromResult(t))
		default:
			return nil
		}
	default:
		return fmt.Errorf("unsupported output format: %s", s.format)
	}
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			s.file.Close()
			return err
		}
	}
	return s.file.Close()
}
