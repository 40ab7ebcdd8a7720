package downloader

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/jxwalker/resfetch/internal/config"
)

// newHTTPClient builds the shared client. network.timeout_seconds bounds
// connecting and waiting for response headers; 0 disables both limits. Body
// transfers are bounded only by the request context, so a large pack that
// streams steadily never times out.
func newHTTPClient(cfg *config.Config) *http.Client {
	timeout := requestTimeout(cfg)
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: tr}
	// Keep the User-Agent across redirects; never forward Authorization to another host.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		prev := via[len(via)-1]
		if ua := prev.Header.Get("User-Agent"); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		if prev.URL != nil && req.URL != nil && strings.EqualFold(prev.URL.Host, req.URL.Host) {
			if auth := prev.Header.Get("Authorization"); auth != "" {
				req.Header.Set("Authorization", auth)
			}
		} else {
			req.Header.Del("Authorization")
		}
		return nil
	}
	return client
}

// requestTimeout is network.timeout_seconds as a duration; 0 means no limit.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Network.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.Network.TimeoutSeconds) * time.Second
}

// userAgent returns the configured User-Agent, or
// "resfetch/<version> (<goos>/<goarch>)" when not set.
func userAgent(cfg *config.Config) string {
	if cfg != nil && cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}
	return fmt.Sprintf("resfetch/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Version is stamped by cmd/resfetch at startup.
var Version = "dev"
