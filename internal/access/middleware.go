package access

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecisionKey is the gin context key holding the request's Decision.
const DecisionKey = "access_decision"

// DefaultSkipPrefixes is the static-asset allowlist the classifier never sees.
var DefaultSkipPrefixes = []string{"/static/", "/favicon.ico", "/robots.txt"}

type MiddlewareOptions struct {
	// CookieName holds the session credential. Presence is all that is checked.
	CookieName string
	// SkipPrefixes bypass classification entirely. Nil means DefaultSkipPrefixes.
	SkipPrefixes []string
	// Observe, if set, sees every decision (metrics, audit).
	Observe func(c *gin.Context, d Decision)
}

// Middleware gates every non-asset route through the classifier.
// GET/HEAD redirects use 307; other methods use 303 so the browser
// does not replay a form body against the login page.
func Middleware(cl *Classifier, opts MiddlewareOptions) gin.HandlerFunc {
	skip := opts.SkipPrefixes
	if skip == nil {
		skip = DefaultSkipPrefixes
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = "token"
	}

	return func(c *gin.Context) {
		p := c.Request.URL.Path
		for _, s := range skip {
			if strings.HasPrefix(p, s) {
				c.Next()
				return
			}
		}

		tok, _ := c.Cookie(cookieName)
		d := cl.Classify(p, c.Request.URL.RawQuery, strings.TrimSpace(tok) != "")
		c.Set(DecisionKey, d)
		if opts.Observe != nil {
			opts.Observe(c, d)
		}

		if d.Action == Allow {
			c.Next()
			return
		}

		status := http.StatusSeeOther
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			status = http.StatusTemporaryRedirect
		}
		c.Redirect(status, d.Location)
		c.Abort()
	}
}

// FromGin returns the decision recorded by Middleware, if any.
func FromGin(c *gin.Context) (Decision, bool) {
	v, ok := c.Get(DecisionKey)
	if !ok {
		return Decision{}, false
	}
	d, ok := v.(Decision)
	return d, ok
}
