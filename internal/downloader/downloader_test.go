package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jxwalker/resfetch/internal/config"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/testutil"
)

type byteCounter struct{ n int64 }

func (b *byteCounter) AddBytes(n int64) { b.n += n }

func testClient(t *testing.T) (*Client, *config.Config, *byteCounter) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.General.TempRoot = filepath.Join(t.TempDir(), "tmp")
	m := &byteCounter{}
	return New(cfg, logging.Discard(), m), cfg, m
}

func TestGetString(t *testing.T) {
	srv := testutil.NewMockHTTPServer()
	defer srv.Close()
	srv.AddResponse("/list.txt", testutil.MockResponse{StatusCode: 200, Body: "A|Forest|forest.zip|10\n"})

	c, _, _ := testClient(t)
	body, err := c.GetString(context.Background(), srv.URL+"/list.txt")
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if body != "A|Forest|forest.zip|10\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if ua := srv.LastHeader("/list.txt", "User-Agent"); !strings.HasPrefix(ua, "resfetch/") {
		t.Fatalf("expected resfetch user agent, got %q", ua)
	}
}

func TestGetStringStatusError(t *testing.T) {
	srv := testutil.NewMockHTTPServer()
	defer srv.Close()

	c, _, _ := testClient(t)
	_, err := c.GetString(context.Background(), srv.URL+"/missing")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestDownloadTemp(t *testing.T) {
	payload := strings.Repeat("tile", 4096)
	srv := testutil.NewMockHTTPServer()
	defer srv.Close()
	srv.AddResponse("/packs/forest.zip", testutil.MockResponse{StatusCode: 200, Body: payload})

	c, cfg, m := testClient(t)
	d, err := c.DownloadTemp(context.Background(), srv.URL+"/packs/forest.zip?sig=1")
	if err != nil {
		t.Fatalf("DownloadTemp: %v", err)
	}
	defer os.Remove(d.Path)

	if filepath.Dir(d.Path) != cfg.General.TempRoot {
		t.Fatalf("download outside temp root: %s", d.Path)
	}
	if !strings.HasSuffix(d.Path, "forest.zip") {
		t.Fatalf("expected url base name to be kept: %s", d.Path)
	}
	b, err := os.ReadFile(d.Path)
	if err != nil || string(b) != payload {
		t.Fatalf("payload mismatch: err=%v len=%d", err, len(b))
	}
	sum := sha256.Sum256([]byte(payload))
	if d.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("sha mismatch")
	}
	if d.Size != int64(len(payload)) || m.n != d.Size {
		t.Fatalf("size accounting: size=%d metrics=%d", d.Size, m.n)
	}
}

func TestDownloadTempFailureLeavesNothing(t *testing.T) {
	srv := testutil.NewMockHTTPServer()
	defer srv.Close()
	srv.AddResponse("/gone.zip", testutil.MockResponse{StatusCode: 500, Body: "boom"})

	c, cfg, _ := testClient(t)
	if _, err := c.DownloadTemp(context.Background(), srv.URL+"/gone.zip"); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(cfg.General.TempRoot)
	if len(entries) != 0 {
		t.Fatalf("temp root should be empty, found %d entries", len(entries))
	}
}

// trickle writes chunks of 1 KiB every interval, flushing each one.
func trickle(chunks int, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fl, _ := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		for i := 0; i < chunks; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(interval):
			}
			_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
			if fl != nil {
				fl.Flush()
			}
		}
	}
}

func TestDownloadTempSlowSteadyBodyOutlivesTimeout(t *testing.T) {
	srv := httptest.NewServer(trickle(15, 100*time.Millisecond))
	defer srv.Close()

	c, cfg, _ := testClient(t)
	cfg.Network.TimeoutSeconds = 1
	c = New(cfg, logging.Discard(), nil)

	start := time.Now()
	d, err := c.DownloadTemp(context.Background(), srv.URL+"/pack.zip")
	if err != nil {
		t.Fatalf("steady download failed after %s: %v", time.Since(start), err)
	}
	defer os.Remove(d.Path)
	if d.Size != 15*1024 {
		t.Fatalf("size=%d", d.Size)
	}
	if time.Since(start) < time.Second {
		t.Fatal("body should have taken longer than the timeout")
	}
}

func TestResponseHeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	c, cfg, _ := testClient(t)
	cfg.Network.TimeoutSeconds = 1
	c = New(cfg, logging.Discard(), nil)
	if _, err := c.DownloadTemp(context.Background(), srv.URL+"/stalled.zip"); err == nil {
		t.Fatal("expected a timeout waiting for headers")
	}
	entries, _ := os.ReadDir(cfg.General.TempRoot)
	if len(entries) != 0 {
		t.Fatalf("temp root should be empty, found %d entries", len(entries))
	}
}

func TestGetStringBoundsWholeRequest(t *testing.T) {
	srv := httptest.NewServer(trickle(15, 100*time.Millisecond))
	defer srv.Close()

	c, cfg, _ := testClient(t)
	cfg.Network.TimeoutSeconds = 1
	c = New(cfg, logging.Discard(), nil)
	if _, err := c.GetString(context.Background(), srv.URL+"/list"); err == nil {
		t.Fatal("a catalog body slower than the timeout should fail")
	}
}

func TestZeroTimeoutDisablesLimits(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Network.TimeoutSeconds = 0
	if d := requestTimeout(cfg); d != 0 {
		t.Fatalf("requestTimeout=%s want 0", d)
	}
	tr := newHTTPClient(cfg).Transport.(*http.Transport)
	if tr.ResponseHeaderTimeout != 0 || newHTTPClient(cfg).Timeout != 0 {
		t.Fatal("timeout 0 must leave the client without limits")
	}
	cfg.Network.TimeoutSeconds = 5
	if tr := newHTTPClient(cfg).Transport.(*http.Transport); tr.ResponseHeaderTimeout != 5*time.Second {
		t.Fatalf("ResponseHeaderTimeout=%s", tr.ResponseHeaderTimeout)
	}
}
