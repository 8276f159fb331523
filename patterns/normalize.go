package patterns

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces a URL or bare hostname to a canonical lookup
// key: the host (or, for scheme-less input, the first path segment),
// lowercased, with any leading "www." stripped. Unparseable input is
// normalized as-is rather than rejected; pattern keys are best-effort.
func NormalizeDomain(raw string) string {
	host := raw
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil {
		switch {
		case u.Host != "":
			host = u.Host
		case u.Path != "":
			host = u.Path
			if i := strings.IndexByte(host, '/'); i >= 0 {
				host = host[:i]
			}
		}
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
