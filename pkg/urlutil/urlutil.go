package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Resolve parses ref and resolves it against base.
// The result must be an absolute http(s) URL; anything else is an error.
//
// Properties:
//   - Pure: no state, no I/O
//   - Deterministic: same input always produces same output
func Resolve(base url.URL, ref string) (url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return url.URL{}, fmt.Errorf("empty reference")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return url.URL{}, err
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return url.URL{}, fmt.Errorf("unsupported scheme %q in %q", resolved.Scheme, ref)
	}
	if resolved.Host == "" {
		return url.URL{}, fmt.Errorf("missing host in %q", ref)
	}
	return *resolved, nil
}

// Basename returns the last path element of u without query or fragment,
// or an empty string for root paths.
func Basename(u url.URL) string {
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
