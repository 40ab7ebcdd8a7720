package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jxwalker/resfetch/internal/config"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/util"
)

// maxListBytes caps GetString bodies; catalog documents are a few KiB.
const maxListBytes = 8 << 20

// Metrics receives byte counts for completed downloads.
type Metrics interface {
	AddBytes(int64)
}

// Client performs the two kinds of transfer resfetch needs: reading the
// catalog document into memory and downloading a library to a temp file.
type Client struct {
	cfg  *config.Config
	log  *logging.Logger
	http *http.Client
	m    Metrics
}

// Download describes a finished temp-file download. The caller owns Path and
// must remove it.
type Download struct {
	URL      string
	Path     string
	Size     int64
	SHA256   string
	Duration time.Duration
}

func New(cfg *config.Config, log *logging.Logger, m Metrics) *Client {
	return &Client{cfg: cfg, log: log, http: newHTTPClient(cfg), m: m}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if rawURL == "" {
		return nil, errors.New("url required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent(c.cfg))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, newStatusError(c.cfg, rawURL, resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// GetString reads the whole response body of a GET. Unlike DownloadTemp the
// whole request, body included, must finish within network.timeout_seconds.
func (c *Client) GetString(ctx context.Context, rawURL string) (string, error) {
	c.log.Debugf("GET %s", logging.SanitizeURL(rawURL))
	if d := requestTimeout(c.cfg); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes+1))
	if err != nil {
		return "", err
	}
	if len(b) > maxListBytes {
		return "", fmt.Errorf("response from %s exceeds %d bytes", logging.SanitizeURL(rawURL), maxListBytes)
	}
	return string(b), nil
}

// DownloadTemp streams rawURL into a uniquely named file under the configured
// temp root. The file keeps the URL's base name so extension sniffing works.
// Only ctx bounds the body transfer. On failure nothing is left behind.
func (c *Client) DownloadTemp(ctx context.Context, rawURL string) (*Download, error) {
	start := time.Now()
	dir := c.cfg.TempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	base := util.SafeFileName(util.URLPathBase(rawURL))
	f, err := os.CreateTemp(dir, "resfetch-*-"+base+".part")
	if err != nil {
		return nil, err
	}
	part := f.Name()
	fail := func(err error) (*Download, error) {
		_ = f.Close()
		_ = os.Remove(part)
		return nil, err
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), resp.Body)
	if err != nil {
		return fail(fmt.Errorf("download %s: %w", logging.SanitizeURL(rawURL), err))
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fail(fmt.Errorf("download %s: short body: got %d of %d bytes", logging.SanitizeURL(rawURL), n, resp.ContentLength))
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return nil, err
	}
	final, err := finalizePart(part)
	if err != nil {
		_ = os.Remove(part)
		return nil, err
	}
	if c.m != nil {
		c.m.AddBytes(n)
	}
	d := &Download{
		URL:      rawURL,
		Path:     final,
		Size:     n,
		SHA256:   hex.EncodeToString(h.Sum(nil)),
		Duration: time.Since(start),
	}
	c.log.Infof("downloaded %s (%d bytes) to %s", logging.SanitizeURL(rawURL), n, final)
	return d, nil
}
