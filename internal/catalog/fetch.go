package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jxwalker/resfetch/internal/logging"
)

// Getter fetches a small text document.
type Getter interface {
	GetString(ctx context.Context, url string) (string, error)
}

// InstalledNames lists libraries that are already installed locally.
type InstalledNames interface {
	LibraryNames() ([]string, error)
}

// Fetcher downloads and parses the catalog document.
type Fetcher struct {
	ListURL   string
	Client    Getter
	Installed InstalledNames
	Log       *logging.Logger
	Metrics   interface{ IncCatalogFetches() }
}

// Load performs one GET of ListURL and parses the body, skipping rows that
// are already installed.
func (f *Fetcher) Load(ctx context.Context) (*Store, error) {
	if f.Client == nil {
		return nil, errors.New("catalog: no http client")
	}
	if f.Metrics != nil {
		f.Metrics.IncCatalogFetches()
	}
	body, err := f.Client.GetString(ctx, f.ListURL)
	if err != nil {
		return nil, fmt.Errorf("download library list: %w", err)
	}
	var installed []string
	if f.Installed != nil {
		names, err := f.Installed.LibraryNames()
		if err != nil {
			f.Log.Warnf("catalog: cannot read installed libraries, offering all rows: %v", err)
		}
		installed = names
	}
	st, err := Parse(body, installed)
	if err != nil {
		return nil, fmt.Errorf("parse library list: %w", err)
	}
	return st, nil
}

// Fetch is Load collapsed to a presentation state: any failure becomes the
// UnavailableMessage placeholder.
func (f *Fetcher) Fetch(ctx context.Context) Listing {
	st, err := f.Load(ctx)
	if err != nil {
		f.Log.Errorf("unable to load library list from %s: %v", logging.SanitizeURL(f.ListURL), err)
		return Placeholder(UnavailableMessage)
	}
	f.Log.Infof("library list: %d rows from %s", st.Len(), logging.SanitizeURL(f.ListURL))
	return Listing{Store: st}
}
