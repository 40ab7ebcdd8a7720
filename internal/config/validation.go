package config

import (
	"fmt"
	neturl "net/url"
	"strings"

	friendlyerrors "github.com/jxwalker/resfetch/internal/errors"
)

// ValidationError represents a detailed config validation error
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Config validation error in '%s': %s", e.Field, e.Message)
}

// ValidateDetailed performs comprehensive validation with friendly error messages
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Version != 1 {
		errs = append(errs, ValidationError{
			Field:      "version",
			Value:      c.Version,
			Message:    fmt.Sprintf("Unsupported version: %d", c.Version),
			Suggestion: "Use version: 1",
		})
	}

	if c.General.DataRoot == "" {
		errs = append(errs, ValidationError{
			Field:      "general.data_root",
			Message:    "Required field missing",
			Suggestion: "Set to a directory for resfetch data:\n  data_root: ~/.local/share/resfetch",
		})
	}

	if c.General.LibraryRoot != "" && c.General.LibraryRoot == c.General.TempRoot {
		errs = append(errs, ValidationError{
			Field:      "general.temp_root",
			Value:      c.General.TempRoot,
			Message:    "Must differ from library_root",
			Suggestion: "Leave temp_root empty to use the system temp directory",
		})
	}

	for _, ep := range []struct{ field, value string }{
		{"catalog.list_url", c.Catalog.ListURL},
		{"catalog.base_url", c.Catalog.BaseURL},
	} {
		u, err := neturl.ParseRequestURI(ep.value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:      ep.field,
				Value:      ep.value,
				Message:    "Not an absolute URL",
				Suggestion: "Use an http(s) URL such as " + DefaultCatalogBaseURL,
			})
		}
	}

	if c.Network.TimeoutSeconds > 3600 {
		errs = append(errs, ValidationError{
			Field:      "network.timeout_seconds",
			Value:      c.Network.TimeoutSeconds,
			Message:    "Very long timeout (>1 hour)",
			Suggestion: "Consider reducing to 30-300 seconds",
		})
	}

	mode := strings.ToLower(c.Placement.Mode)
	if mode != "" && mode != "extract" && mode != "copy" {
		errs = append(errs, ValidationError{
			Field:      "placement.mode",
			Value:      c.Placement.Mode,
			Message:    "Invalid placement mode",
			Suggestion: "Use one of: extract, copy",
		})
	}

	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "metrics.prometheus_textfile.path",
			Message:    "Textfile metrics enabled without a path",
			Suggestion: "Set path, e.g. /var/lib/node_exporter/textfile/resfetch.prom",
		})
	}

	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "logging.file.path",
			Message:    "File logging enabled without a path",
			Suggestion: "Set path, e.g. ~/.local/share/resfetch/resfetch.log",
		})
	}

	return errs
}

// ValidateWithFriendlyErrors returns a user-friendly validation error
func (c *Config) ValidateWithFriendlyErrors() error {
	if err := c.Validate(); err != nil {
		return err
	}

	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("Configuration validation failed:\n\n")

	for i, err := range errs {
		msg.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
		if err.Value != nil {
			msg.WriteString(fmt.Sprintf("   Current value: %v\n", err.Value))
		}
		if err.Suggestion != "" {
			for _, line := range strings.Split(err.Suggestion, "\n") {
				msg.WriteString(fmt.Sprintf("   → %s\n", line))
			}
		}
		msg.WriteString("\n")
	}

	return friendlyerrors.NewFriendlyError(
		"Config validation failed",
		msg.String(),
	).WithDocs("https://github.com/jxwalker/resfetch#configuration")
}
