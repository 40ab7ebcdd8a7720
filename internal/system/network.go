package system

import (
	"context"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"os"
	"time"

	"github.com/jxwalker/resfetch/internal/errors"
)

// CheckEndpointReachable resolves and dials the host of rawURL.
func CheckEndpointReachable(ctx context.Context, rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return errors.NewFriendlyError(
			fmt.Sprintf("Invalid endpoint: %s", rawURL),
			"Check catalog.list_url in your config or the RESFETCH_CATALOG_URL variable",
		)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	resolver := &net.Resolver{}
	if _, err := resolver.LookupHost(ctx, host); err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot resolve host: %s", host),
			"Check that the hostname is correct and your DNS is working",
		).WithDetails(err)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot connect to host: %s", host),
			fmt.Sprintf("Host is unreachable:\n"+
				"1. Check internet connection\n"+
				"2. Verify host is not blocked by firewall\n"+
				"3. Try: curl -I %s", rawURL),
		).WithDetails(err)
	}
	conn.Close()
	return nil
}

// DetectProxySettings returns proxy configuration from environment
func DetectProxySettings() map[string]string {
	proxies := make(map[string]string)
	for _, envVar := range []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"} {
		if val := os.Getenv(envVar); val != "" {
			proxies[envVar] = val
		}
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if proxyURL, _ := http.ProxyFromEnvironment(req); proxyURL != nil {
		if _, exists := proxies["HTTP_PROXY"]; !exists {
			proxies["HTTP_PROXY"] = proxyURL.String()
		}
	}
	return proxies
}
