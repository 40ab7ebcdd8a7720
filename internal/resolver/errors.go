package resolver

import (
	"errors"

	"github.com/jxwalker/resfetch/internal/catalog"
)

// Kind classifies a validation failure.
type Kind int

const (
	MissingPath Kind = iota + 1
	NotADirectory
	MissingName
	InvalidURL
	NoSelection
)

func (k Kind) String() string {
	switch k {
	case MissingPath:
		return "missing-path"
	case NotADirectory:
		return "not-a-directory"
	case MissingName:
		return "missing-name"
	case InvalidURL:
		return "invalid-url"
	case NoSelection:
		return "no-selection"
	}
	return "unknown"
}

// Sentinels for errors.Is; a *ValidationError matches the one for its Kind.
var (
	ErrMissingPath   = errors.New("a directory is required")
	ErrNotADirectory = errors.New("not a directory")
	ErrMissingName   = errors.New("a library name is required")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrNoSelection   = errors.New("no libraries selected")
)

func (k Kind) sentinel() error {
	switch k {
	case MissingPath:
		return ErrMissingPath
	case NotADirectory:
		return ErrNotADirectory
	case MissingName:
		return ErrMissingName
	case InvalidURL:
		return ErrInvalidURL
	case NoSelection:
		return ErrNoSelection
	}
	return nil
}

// ValidationError stops a commit before anything is installed.
type ValidationError struct {
	Kind  Kind
	Value string
	// Row is the catalog row that failed, for InvalidURL in catalog mode.
	Row *catalog.Row
}

func (e *ValidationError) Error() string {
	msg := e.Kind.sentinel().Error()
	switch {
	case e.Row != nil:
		return msg + " for " + e.Row.Name + ": " + e.Value
	case e.Value != "":
		return msg + ": " + e.Value
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Message is the text shown in the blocking notice.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case MissingPath:
		if e.Value == "" {
			return "Please enter a directory to add as a library."
		}
		return "The directory " + e.Value + " does not exist."
	case NotADirectory:
		return e.Value + " is not a directory."
	case MissingName:
		return "Please enter a name for the library."
	case InvalidURL:
		if e.Row != nil {
			return "The catalog entry " + e.Row.Name + " has an invalid address: " + e.Value
		}
		return "The address " + e.Value + " is not a valid URL."
	case NoSelection:
		return "Please select at least one library to add."
	}
	return e.Error()
}
