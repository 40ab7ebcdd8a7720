package downloader

import (
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/jxwalker/resfetch/internal/config"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL    string
	Code   int
	Status string
	msg    string
}

func (e *StatusError) Error() string { return e.msg }

func newStatusError(cfg *config.Config, rawURL string, code int, status string) *StatusError {
	return &StatusError{
		URL:    rawURL,
		Code:   code,
		Status: status,
		msg:    friendlyHTTPStatusMessage(cfg, hostFromURL(rawURL), code, status),
	}
}

// friendlyHTTPStatusMessage creates a host-aware error message for common statuses.
// Hosts serving the configured catalog get a hint about the catalog settings.
func friendlyHTTPStatusMessage(cfg *config.Config, host string, statusCode int, status string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	catalogHost := cfg != nil && (hostIs(h, hostFromURL(cfg.Catalog.BaseURL)) || hostIs(h, hostFromURL(cfg.Catalog.ListURL)))

	mk := func(base string) string {
		if catalogHost {
			return fmt.Sprintf("%s (library server: check catalog.list_url / catalog.base_url or set %s)", base, config.EnvCatalogBaseURL)
		}
		return base
	}

	switch statusCode {
	case 429:
		return "429 Too Many Requests: rate limited"
	case 401:
		return mk("401 Unauthorized: the server requires credentials")
	case 403:
		return mk("403 Forbidden: access denied")
	case 404:
		return mk("404 Not Found: check the URL")
	default:
		if status == "" {
			return fmt.Sprintf("unexpected status: %d", statusCode)
		}
		return "unexpected status: " + status
	}
}

// hostIs returns true if h equals root or is a subdomain of root.
func hostIs(h, root string) bool {
	h = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
	root = strings.ToLower(strings.TrimSpace(root))
	if h == "" || root == "" {
		return false
	}
	return h == root || strings.HasSuffix(h, "."+root)
}

// hostFromURL extracts hostname from a URL string.
func hostFromURL(raw string) string {
	if u, err := neturl.Parse(raw); err == nil && u != nil {
		return u.Hostname()
	}
	return ""
}
