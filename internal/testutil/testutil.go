package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/jxwalker/resfetch/internal/state"
)

// MockHTTPServer creates a test HTTP server that serves canned responses
type MockHTTPServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	hits      map[string]int
	headers   map[string]http.Header
}

// MockResponse represents a canned HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// NewMockHTTPServer creates a new mock HTTP server
func NewMockHTTPServer() *MockHTTPServer {
	ms := &MockHTTPServer{
		responses: make(map[string]MockResponse),
		hits:      make(map[string]int),
		headers:   make(map[string]http.Header),
	}

	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}

		ms.mu.Lock()
		ms.hits[r.URL.Path]++
		ms.headers[r.URL.Path] = r.Header.Clone()
		resp, ok := ms.responses[key]
		if !ok {
			// Try without query parameters
			resp, ok = ms.responses[r.URL.Path]
		}
		ms.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprintf(w, "No mock response configured for %s", key)
			return
		}

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = fmt.Fprint(w, resp.Body)
	}))

	return ms
}

// AddResponse adds a canned response for a specific path
func (ms *MockHTTPServer) AddResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// Hits reports how many requests reached path, query ignored.
func (ms *MockHTTPServer) Hits(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.hits[path]
}

// LastHeader returns a header value from the most recent request to path.
func (ms *MockHTTPServer) LastHeader(path, key string) string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.headers[path].Get(key)
}

// TestDB creates a file-backed state database in a temp dir
func TestDB(t *testing.T) *state.DB {
	t.Helper()

	db, err := state.OpenPath(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// TempFile creates a temporary file with content
func TempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// ZipBytes builds an in-memory zip archive from name -> content.
func ZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("zip create %s: %v", n, err)
		}
		if _, err := w.Write([]byte(files[n])); err != nil {
			t.Fatalf("zip write %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
