package logging

import (
	"net/url"
	"strings"
)

// SanitizeURL removes userinfo, query and fragment so signed download links
// and credentials never reach the log. Strings that are not absolute URLs are
// returned unchanged.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
