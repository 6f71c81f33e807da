package logger

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
)

// Middleware tags every request with a request_id (taken from X-Request-Id or
// generated), makes a request-scoped logger reachable through FromGin and
// From, and writes one summary line when the handler chain returns.
//
// Requests to quiet paths (probes, scrapes) are summarised at debug level.
func Middleware(l *slog.Logger, quiet ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		log := l.With("request_id", rid)
		c.Set(ginLoggerKey, log)
		c.Request = c.Request.WithContext(With(c.Request.Context(), log))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", route),
			slog.Int("status", status),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		}
		h := c.Writer.Header()
		if loc := h.Get("Location"); loc != "" {
			attrs = append(attrs, slog.String("location", loc))
		}
		if hit := h.Get("X-Cache"); hit != "" {
			attrs = append(attrs, slog.String("cache", hit))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		log.LogAttrs(c.Request.Context(), summaryLevel(c, route, status, quiet), "request", attrs...)
	}
}

func summaryLevel(c *gin.Context, route string, status int, quiet []string) slog.Level {
	switch {
	case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
		return slog.LevelError
	case slices.Contains(quiet, route):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// FromGin returns the logger Middleware stored, or slog.Default().
func FromGin(c *gin.Context) *slog.Logger {
	if l, ok := c.Value(ginLoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
