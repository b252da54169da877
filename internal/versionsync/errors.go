package versionsync

import "fmt"

// PatternNotFoundError reports that a target file's content does not match
// the expected search pattern for the current version. It signals the
// declared locations have drifted out of sync and must be fixed manually
// before retrying.
type PatternNotFoundError struct {
	Path    string
	Pattern string
	Count   int
}

func (e *PatternNotFoundError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("%s: pattern %q found %d times, expected exactly one occurrence", e.Path, e.Pattern, e.Count)
	}
	return fmt.Sprintf("%s: pattern %q not found (version locations have drifted; fix them manually and retry)", e.Path, e.Pattern)
}

// WriteFailureError reports a filesystem or permission failure while
// rewriting a target file.
type WriteFailureError struct {
	Path string
	Err  error
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("%s: write failed: %v", e.Path, e.Err)
}

func (e *WriteFailureError) Unwrap() error {
	return e.Err
}
