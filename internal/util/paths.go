package util

import (
	"net/url"
	pathpkg "path"
	"path/filepath"
	"strings"
)

// SafeFileName reduces name to [A-Za-z0-9._-], keeping its extension.
// Runs of other runes become a single '-'; leading and trailing '-' and '.'
// are dropped. An empty result becomes "download".
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	ext := filepath.Ext(name)
	if strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSuffix(name, ext) {
		if !safeRune(r) {
			if !dash {
				b.WriteByte('-')
			}
			dash = true
			continue
		}
		b.WriteRune(r)
		dash = false
	}
	clean := strings.Trim(b.String(), "-.")
	if clean == "" {
		clean = "download"
	}
	return clean + ext
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return r == '_' || r == '-' || r == '.'
}

// URLPathBase returns the last path segment of u without query or fragment,
// or "download" when there is none.
func URLPathBase(u string) string {
	s := strings.TrimSpace(u)
	if pu, err := url.Parse(s); err == nil {
		s = pu.Path
	} else if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	switch b := pathpkg.Base(s); b {
	case "", "/", ".":
		return "download"
	default:
		return b
	}
}

// NameWithoutExtension returns the base name of p minus its extension.
// Dot-files keep their full name.
func NameWithoutExtension(p string) string {
	base := filepath.Base(filepath.Clean(p))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return base
	}
	return name
}
