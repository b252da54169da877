package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"relcheck/internal/matrix"
)

// ConsoleSink renders run progress for a human (text) or a machine
// (json / ndjson) on the console.
type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []matrix.Result // for JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(matrix.Result); ok {
			s.results = append(s.results, r)
		}
		// Lifecycle events are ignored in JSON aggregate mode.
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case matrix.Result:
			if err := encoder.Encode(eventFromResult(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		r, ok := v.(matrix.Result)
		if !ok {
			// Events are not rendered in text mode; the summary covers them.
			return nil
		}
		if _, err := fmt.Fprintf(s.writer, "[%s] %s (%s)", string(r.Outcome), r.Env, r.Duration.Truncate(time.Millisecond)); err != nil {
			return err
		}
		if r.Reason != "" {
			if _, err := fmt.Fprintf(s.writer, " - %s", r.Reason); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(s.writer); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	return nil
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
