// Package session holds the state of one add-library dialog. It is owned by
// a single goroutine; background work hands results back as values.
package session

import (
	"context"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/resolver"
)

// ListingFetcher produces the catalog listing, collapsing failures into a placeholder.
type ListingFetcher interface {
	Fetch(ctx context.Context) catalog.Listing
}

type Session struct {
	Mode resolver.Mode
	// Form holds the text fields; Selected is filled in by Commit.
	Form    resolver.Form
	BaseURL string

	fetcher      ListingFetcher
	fetchStarted bool
	listing      catalog.Listing
	selected     []int
}

func New(f ListingFetcher, baseURL string) *Session {
	return &Session{Mode: resolver.Local, BaseURL: baseURL, fetcher: f}
}

// SetMode switches the active source and reports whether the caller should
// start the catalog fetch now. That is true only on the first switch to Catalog.
func (s *Session) SetMode(m resolver.Mode) bool {
	s.Mode = m
	return m == resolver.Catalog && !s.fetchStarted
}

// FetchStarted reports whether the one fetch of this session has begun.
func (s *Session) FetchStarted() bool { return s.fetchStarted }

// StartFetch launches the catalog fetch in the background. It returns nil
// when a fetch was already started in this session. The listing arrives on
// the channel and must be applied with ApplyListing by the owner.
func (s *Session) StartFetch(ctx context.Context) <-chan catalog.Listing {
	if s.fetchStarted || s.fetcher == nil {
		return nil
	}
	s.fetchStarted = true
	s.listing = catalog.Placeholder(catalog.DownloadingMessage)
	ch := make(chan catalog.Listing, 1)
	f := s.fetcher
	go func() {
		defer close(ch)
		ch <- f.Fetch(ctx)
	}()
	return ch
}

// ApplyListing installs a fetched listing and clears the selection.
func (s *Session) ApplyListing(l catalog.Listing) {
	s.listing = l
	s.selected = nil
}

func (s *Session) Listing() catalog.Listing { return s.listing }

// Toggle flips the selection of store row i and returns its new state.
func (s *Session) Toggle(i int) bool {
	if _, ok := s.listing.Store.Row(i); !ok {
		return false
	}
	for k, j := range s.selected {
		if j == i {
			s.selected = append(s.selected[:k], s.selected[k+1:]...)
			return false
		}
	}
	s.selected = append(s.selected, i)
	return true
}

func (s *Session) IsSelected(i int) bool {
	for _, j := range s.selected {
		if j == i {
			return true
		}
	}
	return false
}

// Selected returns the selected rows in the order they were toggled on.
func (s *Session) Selected() []catalog.Row {
	out := make([]catalog.Row, 0, len(s.selected))
	for _, i := range s.selected {
		if r, ok := s.listing.Store.Row(i); ok {
			out = append(out, r)
		}
	}
	return out
}

// Commit resolves the active mode. A *resolver.ValidationError leaves the
// session untouched so the dialog can stay open.
func (s *Session) Commit() ([]catalog.Row, error) {
	form := s.Form
	form.Selected = s.Selected()
	return resolver.Resolve(s.Mode, form, s.BaseURL)
}
