package sessions

import (
	"net/url"
	"strings"
)

// DefaultLanding is where a login lands when no usable next target is given.
const DefaultLanding = "/dashboard"

// SafeNext returns next when it points back at this server, otherwise
// DefaultLanding. Relative targets must be rooted paths; absolute targets
// must use http(s) and name host exactly.
func SafeNext(next, host string) string {
	next = strings.TrimSpace(next)
	if next == "" || strings.ContainsRune(next, '\\') {
		return DefaultLanding
	}
	for _, r := range next {
		if r < 0x20 || r == 0x7f {
			return DefaultLanding
		}
	}
	u, err := url.Parse(next)
	if err != nil {
		return DefaultLanding
	}
	if u.Host == "" && u.Scheme == "" && u.User == nil {
		if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
			return DefaultLanding
		}
		return next
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return DefaultLanding
	}
	if u.User != nil || host == "" || !strings.EqualFold(u.Host, host) {
		return DefaultLanding
	}
	return u.RequestURI()
}
