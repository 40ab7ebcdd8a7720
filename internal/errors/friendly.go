package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides actionable error messages for end users
type UserFriendlyError struct {
	Message    string // what went wrong, in one line
	Suggestion string // how to fix it; may span lines
	DocsLink   string
	Details    error // original error, for logs
}

func (e *UserFriendlyError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Suggestion != "" {
		sb.WriteString("\n\nHow to fix:\n")
		sb.WriteString(e.Suggestion)
	}
	if e.DocsLink != "" {
		sb.WriteString("\n\nDocumentation: ")
		sb.WriteString(e.DocsLink)
	}
	return sb.String()
}

func (e *UserFriendlyError) Unwrap() error {
	return e.Details
}

// NewFriendlyError creates a user-friendly error
func NewFriendlyError(message, suggestion string) *UserFriendlyError {
	return &UserFriendlyError{Message: message, Suggestion: suggestion}
}

// WithDetails adds the underlying error details
func (e *UserFriendlyError) WithDetails(err error) *UserFriendlyError {
	e.Details = err
	return e
}

// WithDocs adds a documentation link
func (e *UserFriendlyError) WithDocs(link string) *UserFriendlyError {
	e.DocsLink = link
	return e
}

// hint maps substrings of an error message to a message and suggestion.
// The first matching hint wins.
type hint struct {
	match      []string
	message    string
	suggestion string
}

func classify(err error, hints []hint) (hint, bool) {
	if err == nil {
		return hint{}, false
	}
	s := err.Error()
	for _, h := range hints {
		for _, m := range h.match {
			if strings.Contains(s, m) {
				return h, true
			}
		}
	}
	return hint{}, false
}

var networkHints = []hint{
	{
		match:      []string{"no such host", "name resolution"},
		message:    "Cannot resolve hostname - DNS lookup failed",
		suggestion: "1. Check your internet connection\n2. Verify DNS settings\n3. Check catalog.list_url in your config",
	},
	{
		match:      []string{"connection refused"},
		message:    "Server refused connection",
		suggestion: "The library server may be down. Try again later.",
	},
	{
		match:      []string{"timeout", "deadline exceeded"},
		message:    "Connection timed out",
		suggestion: "1. Increase network.timeout_seconds\n2. Try again later",
	},
	{
		match:      []string{"x509", "certificate"},
		message:    "SSL/TLS certificate verification failed",
		suggestion: "If you are behind a proxy, check HTTPS_PROXY and your system CA bundle",
	},
}

// NetworkError explains a failed request to the library server.
func NetworkError(err error) *UserFriendlyError {
	fe := &UserFriendlyError{
		Message:    "Network error occurred",
		Suggestion: "Check your internet connection and try again",
		Details:    err,
	}
	if h, ok := classify(err, networkHints); ok {
		fe.Message, fe.Suggestion = h.message, h.suggestion
	}
	return fe
}

var databaseHints = []hint{
	{
		match:      []string{"locked", "SQLITE_BUSY"},
		message:    "Database is locked by another process",
		suggestion: "Close other resfetch instances and try again",
	},
	{
		match:   []string{"corrupt", "malformed"},
		message: "Database is corrupted",
		suggestion: "Move the state database aside and rerun; libraries already under library_root are still detected:\n" +
			"  mv ~/.local/share/resfetch/state.db ~/.local/share/resfetch/state.db.backup",
	},
}

// DatabaseError explains a failure opening or using the state database.
func DatabaseError(err error) *UserFriendlyError {
	fe := &UserFriendlyError{
		Message:    "Database error",
		Suggestion: "Try running: resfetch doctor",
		Details:    err,
	}
	if h, ok := classify(err, databaseHints); ok {
		fe.Message, fe.Suggestion = h.message, h.suggestion
	}
	return fe
}

var pathHints = []hint{
	{match: []string{"permission denied"}, message: "Permission denied: %s", suggestion: "Ensure you have write permission:\n  chmod u+w %s"},
	{match: []string{"no such file or directory"}, message: "Directory does not exist: %s", suggestion: "Create the directory:\n  mkdir -p %s"},
	{match: []string{"not a directory"}, message: "Path exists but is not a directory: %s", suggestion: "Remove the file or choose a different path"},
}

// PathError explains a filesystem failure on path.
func PathError(path string, err error) *UserFriendlyError {
	fe := &UserFriendlyError{
		Message:    "Path error: " + path,
		Suggestion: "Check that the path exists and you have permission to access it",
		Details:    err,
	}
	if h, ok := classify(err, pathHints); ok {
		fe.Message = fmt.Sprintf(h.message, path)
		fe.Suggestion = h.suggestion
		if strings.Contains(h.suggestion, "%s") {
			fe.Suggestion = fmt.Sprintf(h.suggestion, path)
		}
	}
	return fe
}

// InstallError wraps a per-library failure. The message is what the user sees
// in the notice; Details keeps the cause for the log.
func InstallError(name string, err error) *UserFriendlyError {
	suggestion := "The remaining libraries were still processed. Check the log for details."
	if h, ok := classify(err, networkHints); ok {
		suggestion = h.message + ". " + suggestion
	}
	return &UserFriendlyError{
		Message:    fmt.Sprintf("Could not load resource library %q", name),
		Suggestion: suggestion,
		Details:    err,
	}
}
