// Package resolver turns what the user entered for a source mode into the
// ordered rows to install.
package resolver

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/util"
)

// LocalArtist is the artist on the row synthesized for a local directory.
const LocalArtist = "local"

// Form is the user input for every mode; only the active mode's fields are read.
type Form struct {
	LocalDirectory string
	URLName        string
	URL            string
	// Selected catalog rows in selection order.
	Selected []catalog.Row
}

// Resolve validates form for mode. It touches the filesystem only to stat
// the Local directory.
func Resolve(mode Mode, form Form, baseURL string) ([]catalog.Row, error) {
	switch mode {
	case Local:
		r, err := resolveLocal(form.LocalDirectory)
		if err != nil {
			return nil, err
		}
		return []catalog.Row{r}, nil
	case Web:
		r, err := resolveWeb(form.URLName, form.URL)
		if err != nil {
			return nil, err
		}
		return []catalog.Row{r}, nil
	case Catalog:
		return resolveCatalog(form.Selected, baseURL)
	}
	return nil, fmt.Errorf("unknown source mode %v", mode)
}

func resolveLocal(dir string) (catalog.Row, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return catalog.Row{}, &ValidationError{Kind: MissingPath}
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return catalog.Row{}, &ValidationError{Kind: MissingPath, Value: dir}
	}
	if !fi.IsDir() {
		return catalog.Row{}, &ValidationError{Kind: NotADirectory, Value: dir}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	return catalog.Row{
		Artist: LocalArtist,
		Name:   util.NameWithoutExtension(abs),
		Path:   abs,
		Size:   catalog.UnknownSize,
	}, nil
}

func resolveWeb(name, raw string) (catalog.Row, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Row{}, &ValidationError{Kind: MissingName}
	}
	raw = strings.TrimSpace(raw)
	if !ValidURL(raw) {
		return catalog.Row{}, &ValidationError{Kind: InvalidURL, Value: raw}
	}
	return catalog.Row{Artist: catalog.UnknownArtist, Name: name, Path: raw, Size: catalog.UnknownSize}, nil
}

func resolveCatalog(selected []catalog.Row, baseURL string) ([]catalog.Row, error) {
	if len(selected) == 0 {
		return nil, &ValidationError{Kind: NoSelection}
	}
	out := make([]catalog.Row, 0, len(selected))
	for i := range selected {
		r := selected[i]
		r.Path = JoinURL(baseURL, r.Path)
		if !ValidURL(r.Path) {
			failed := selected[i]
			return nil, &ValidationError{Kind: InvalidURL, Value: r.Path, Row: &failed}
		}
		out = append(out, r)
	}
	return out, nil
}

// JoinURL joins base and p with exactly one slash.
func JoinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// ValidURL reports whether s is an absolute http or https URL with a host.
// Other schemes (file, ftp) are rejected because installs download over HTTP.
func ValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return false
}
