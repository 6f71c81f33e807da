package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cms-portal/internal/access"
	"cms-portal/internal/apiclient"
	"cms-portal/internal/audit"
	"cms-portal/internal/cache"
	"cms-portal/internal/cms"
	"cms-portal/internal/reporting"
	"cms-portal/internal/session"
	"cms-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the portal's HTTP handlers for dependency injection.
// Keep these thin: bind input, call the CMS through the API client, answer
// with a JSON view model.
type Handlers struct {
	API    *apiclient.Client
	Access *access.Classifier
	Cookie session.CookieConfig

	// Optional collaborators. Nil values disable the feature.
	Audit    *audit.Service
	Reports  *reporting.Service
	Cache    cache.Cache
	CacheTTL time.Duration
	Limiter  cache.Limiter
}

const (
	upstreamKey = "upstream"
	profileKey  = "profile"

	// statusClientClosed is logged when the browser went away mid-request.
	statusClientClosed = 499
)

// upstream is the request-scoped view of the CMS: typed services over an API
// client bound to this request's session cookie.
type upstream struct {
	*cms.Client
	store *session.CookieStore
}

// upstream returns the request's CMS client, creating it once per request so
// middleware and handlers share one credential and one refresh queue.
func (h Handlers) upstream(c *gin.Context) upstream {
	if v, ok := c.Get(upstreamKey); ok {
		if up, ok := v.(upstream); ok {
			return up
		}
	}
	store := session.NewCookieStore(c, h.Cookie)
	up := upstream{Client: cms.NewClient(h.API.WithStore(store)), store: store}
	c.Set(upstreamKey, up)
	return up
}

func (up upstream) signedIn(ctx context.Context) bool {
	tok, _ := up.store.Token(ctx)
	return tok != ""
}

// fail maps an upstream failure onto the browser response.
func (h Handlers) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	switch {
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosed)
		return
	case errors.Is(err, cms.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch apiclient.KindOf(err) {
	case apiclient.KindAuthExpired:
		up := h.upstream(c)
		if up.signedIn(ctx) {
			_ = up.store.ClearToken(ctx)
		}
		h.Audit.LogRefreshFailed(ctx, c.ClientIP(), c.Request.URL.Path)
		log.Info("session expired", "path", c.Request.URL.Path)
		redirect(c, h.Access.LoginURL(requestPath(c)))
	case apiclient.KindClient:
		var apiErr *apiclient.Error
		_ = errors.As(err, &apiErr)
		msg := apiErr.Message()
		if msg == "" {
			msg = strings.ToLower(http.StatusText(apiErr.StatusCode))
		}
		c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{"error": msg})
	case apiclient.KindTransientServer, apiclient.KindNetwork:
		log.Warn("upstream unavailable", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	default:
		log.Error("request failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// redirect uses 307 for safe methods and 303 otherwise, like the access gate.
func redirect(c *gin.Context, location string) {
	status := http.StatusSeeOther
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		status = http.StatusTemporaryRedirect
	}
	c.Redirect(status, location)
	c.Abort()
}

// done finishes a mutation: JSON clients get body, form posts are sent to location.
func done(c *gin.Context, status int, location string, body any) {
	if wantsJSON(c) {
		c.JSON(status, body)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON || strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON)
}

func requestPath(c *gin.Context) string {
	p := c.Request.URL.Path
	if q := c.Request.URL.RawQuery; q != "" {
		p += "?" + q
	}
	return p
}

/* ===================== GUEST CACHE ===================== */

// guestKey returns the cache key for a guest view, or false for signed-in
// visitors, whose views are never cached.
func (h Handlers) guestKey(c *gin.Context, up upstream) (string, bool) {
	if h.Cache == nil || up.signedIn(c.Request.Context()) {
		return "", false
	}
	// Encode sorts keys, so equivalent queries share an entry.
	return "guest:" + c.Request.URL.Path + "?" + c.Request.URL.Query().Encode(), true
}

func (h Handlers) serveCached(c *gin.Context, key string) bool {
	b, ok, err := h.Cache.Get(c.Request.Context(), key)
	if err != nil {
		logger.FromGin(c).Debug("guest cache read failed", "err", err)
		return false
	}
	if !ok {
		return false
	}
	c.Header("X-Cache", "HIT")
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

// render writes view and, when key is set, stores it for other guests.
func (h Handlers) render(c *gin.Context, key string, view any) {
	if key == "" {
		c.JSON(http.StatusOK, view)
		return
	}
	b, err := json.Marshal(view)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Cache.Set(c.Request.Context(), key, b, h.CacheTTL); err != nil {
		logger.FromGin(c).Debug("guest cache write failed", "err", err)
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

/* ===================== ACCESS ===================== */

// traceSession logs credential changes made while serving the request,
// together with the gate's classification of the path.
func (h Handlers) traceSession(c *gin.Context) {
	c.Next()

	v, ok := c.Get(upstreamKey)
	if !ok {
		return
	}
	up, ok := v.(upstream)
	if !ok {
		return
	}
	var change string
	switch {
	case up.store.Cleared():
		change = "cleared"
	case up.store.Rotated():
		change = "rotated"
	default:
		return
	}
	attrs := []any{"change", change}
	if d, ok := access.FromGin(c); ok {
		attrs = append(attrs, "visibility", d.Visibility)
	}
	logger.FromGin(c).Debug("session credential changed", attrs...)
}

// ObserveAccess feeds gate decisions to metrics and the audit trail.
func (h Handlers) ObserveAccess(m *access.Metrics) func(*gin.Context, access.Decision) {
	return func(c *gin.Context, d access.Decision) {
		m.Observe(d)
		if d.Action == access.RedirectToLogin {
			h.Audit.LogAccessRedirect(c.Request.Context(), c.ClientIP(), requestPath(c), d.Location)
		}
	}
}
