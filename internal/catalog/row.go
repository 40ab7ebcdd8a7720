// Package catalog models the curated resource-library catalog: the
// artist|name|path|size document, the ordered row store built from it, and
// the background fetch that produces a listing for the add-resource dialog.
package catalog

import (
	"fmt"
	neturl "net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// UnknownSize marks rows whose byte count is not known (web entries).
const UnknownSize int64 = -1

// UnknownArtist is the artist recorded for entries typed in by the user.
const UnknownArtist = "unknown"

// Delimiter separates the four fields of a catalog line.
const Delimiter = "|"

// Row is one installable resource library.
type Row struct {
	Artist string
	Name   string
	// Path is relative to the catalog base URL for catalog rows, an absolute
	// URL for web rows, or a local directory for local rows.
	Path string
	Size int64
}

// NewRow trims the text fields.
func NewRow(artist, name, path string, size int64) Row {
	return Row{
		Artist: strings.TrimSpace(artist),
		Name:   strings.TrimSpace(name),
		Path:   strings.TrimSpace(path),
		Size:   size,
	}
}

// ParseError reports a malformed catalog line. Line is 1-based; zero when the
// row was parsed outside a document.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("catalog line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("catalog row: %s: %q", e.Reason, e.Text)
}

// ParseRow parses "artist|name|path|size".
func ParseRow(line string) (Row, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != 4 {
		return Row{}, &ParseError{Text: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields))}
	}
	size, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return Row{}, &ParseError{Text: line, Reason: "size is not an integer"}
	}
	r := NewRow(fields[0], fields[1], fields[2], size)
	switch {
	case r.Artist == "":
		return Row{}, &ParseError{Text: line, Reason: "empty artist"}
	case r.Name == "":
		return Row{}, &ParseError{Text: line, Reason: "empty name"}
	case r.Path == "":
		return Row{}, &ParseError{Text: line, Reason: "empty path"}
	}
	return r, nil
}

// IsRemote reports whether Path is an absolute URL that must be downloaded
// before installing. Absolute filesystem paths are never remote.
func (r Row) IsRemote() bool {
	if r.Path == "" || filepath.IsAbs(r.Path) {
		return false
	}
	u, err := neturl.Parse(r.Path)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// SizeString renders Size the way the catalog table shows it.
func (r Row) SizeString() string {
	return FormatSize(r.Size)
}

// FormatSize uses decimal thresholds: bytes below 1000, k below 1000000, mb above.
func FormatSize(size int64) string {
	switch {
	case size < 0:
		return "unknown"
	case size < 1000:
		return humanize.Comma(size) + " bytes"
	case size < 1000000:
		return humanize.Comma(size/1000) + " k"
	default:
		return humanize.Comma(size/1000000) + " mb"
	}
}
