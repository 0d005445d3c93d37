package format

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintTotalFailureSummary reports a failed operation with its error code
// and suggested fixes.
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":     false,
			"operation":   operation,
			"error":       err.Error(),
			"error_code":  errorCode,
			"suggestions": GetSuggestions(errorCode),
		})
	}

	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed, color.Bold).Fprintf(f.stderr, "✗ %s failed\n", capitalize(operation))
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "✗ %s failed\n", capitalize(operation))
	}
	if writeErr != nil {
		return writeErr
	}

	if _, writeErr = fmt.Fprintf(f.stderr, "  Error: %v\n", err); writeErr != nil {
		return writeErr
	}

	suggestions := GetSuggestions(errorCode)
	if len(suggestions) > 0 {
		if _, writeErr = fmt.Fprintln(f.stderr, "  Suggestions:"); writeErr != nil {
			return writeErr
		}
		for _, s := range suggestions {
			if _, writeErr = fmt.Fprintf(f.stderr, "    - %s\n", s); writeErr != nil {
				return writeErr
			}
		}
	}

	return nil
}

// GetSuggestions returns actionable hints for a known error code.
func GetSuggestions(errorCode string) []string {
	switch errorCode {
	case "JOB_NOT_FOUND":
		return []string{
			"Check the job ID with 'taskdeck stats' or GET /api/v1/jobs",
			"Completed jobs older than the retention window are removed",
		}
	case "JOB_HANDLER_NOT_FOUND":
		return []string{
			"List registered handlers via the server logs at startup",
			"Register the handler before submitting jobs that use it",
		}
	case "JOB_INVALID_INPUT":
		return []string{
			"Check required fields: name and handler must be non-empty",
			"Priority must be one of: low, normal, high, critical",
		}
	case "SERVER_LOCK_HELD":
		return []string{
			"Another taskdeck instance is already running",
			"Stop the other instance or remove a stale lock file",
		}
	case "SERVER_INVALID_CONFIG":
		return []string{
			"Validate the config file syntax (YAML)",
			"Run with --log-level debug to see the rejected values",
		}
	case "SERVER_CONFIG_LOAD_FAILED":
		return []string{
			"Check that the config file exists and is readable",
			"Pass an explicit path with --config",
		}
	default:
		return nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-32) + s[1:]
	}
	return s
}
