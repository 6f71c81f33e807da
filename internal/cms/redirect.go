package cms

import (
	"net/url"
	"strings"

	"cms-portal/internal/rbac"
)

// HomePath is where a signed-in user lands by default.
func HomePath(role Role) string { return rbac.HomePath(string(role)) }

// SafeNext returns next when it is a same-origin path, or "".
// Absolute URLs, scheme-relative "//host" forms and backslash tricks are rejected.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || next[0] != '/' {
		return ""
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return ""
	}
	return next
}

// AfterLoginPath picks the landing page after sign-in: a safe next wins,
// except when it points back at a sign-in page.
func AfterLoginPath(role Role, next string) string {
	next = SafeNext(next)
	if next == "" {
		return HomePath(role)
	}
	p := next
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.TrimRight(p, "/") {
	case "/login", "/register":
		return HomePath(role)
	}
	return next
}
