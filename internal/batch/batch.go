// Package batch reads YAML files describing several libraries to add at once.
package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/resolver"
)

type File struct {
	Version int   `yaml:"version"`
	Jobs    []Job `yaml:"jobs"`
}

// Job is one source. Which fields apply depends on Mode:
// local uses Path, web uses Name and URL, catalog uses Pick.
type Job struct {
	Mode string   `yaml:"mode"` // local|web|catalog
	Name string   `yaml:"name"`
	URL  string   `yaml:"url"`
	Path string   `yaml:"path"`
	Pick []string `yaml:"pick"`
}

func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("unsupported batch version: %d", f.Version)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("batch has no jobs")
	}
	for i, j := range f.Jobs {
		if _, err := resolver.ParseMode(j.Mode); err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
	}
	return &f, nil
}

// NeedsCatalog reports whether any job picks from the catalog.
func (f *File) NeedsCatalog() bool {
	for _, j := range f.Jobs {
		if m, _ := resolver.ParseMode(j.Mode); m == resolver.Catalog {
			return true
		}
	}
	return false
}

// Resolve turns every job into rows, in file order. store may be nil when no
// job uses the catalog. The first invalid job aborts the whole batch.
func (f *File) Resolve(store *catalog.Store, baseURL string) ([]catalog.Row, error) {
	var out []catalog.Row
	for i, j := range f.Jobs {
		mode, err := resolver.ParseMode(j.Mode)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		form := resolver.Form{LocalDirectory: j.Path, URLName: j.Name, URL: j.URL}
		if mode == resolver.Catalog {
			form.Selected, err = Pick(store, j.Pick)
			if err != nil {
				return nil, fmt.Errorf("job %d: %w", i+1, err)
			}
		}
		rows, err := resolver.Resolve(mode, form, baseURL)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Pick looks names up in store, keeping argument order.
func Pick(store *catalog.Store, names []string) ([]catalog.Row, error) {
	if store == nil {
		return nil, fmt.Errorf("library catalog unavailable")
	}
	byName := make(map[string]catalog.Row, store.Len())
	for _, r := range store.Rows() {
		byName[r.Name] = r
	}
	out := make([]catalog.Row, 0, len(names))
	for _, n := range names {
		r, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%q is not in the library catalog (or is already installed)", n)
		}
		out = append(out, r)
	}
	return out, nil
}
