package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig fixes the attributes of the session cookie.
// Path is always "/" and SameSite always Lax.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

const (
	DefaultCookieName = "token"
	DefaultMaxAge     = 7 * 24 * time.Hour
)

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	return c
}

// ReadCookie returns the credential carried by the request, or "".
func ReadCookie(c *gin.Context, cfg CookieConfig) string {
	cfg = cfg.withDefaults()
	v, err := c.Cookie(cfg.Name)
	if err != nil {
		return ""
	}
	return v
}

// WriteCookie sets the session cookie on the response.
func WriteCookie(c *gin.Context, cfg CookieConfig, token string) {
	cfg = cfg.withDefaults()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.MaxAge/time.Second), "/", "", cfg.Secure, true)
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context, cfg CookieConfig) {
	cfg = cfg.withDefaults()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, "", -1, "/", "", cfg.Secure, true)
}

// CookieStore is a per-request credential store backed by the session cookie.
// Reads see writes made earlier in the same request.
type CookieStore struct {
	c   *gin.Context
	cfg CookieConfig

	mu      sync.Mutex
	token   string
	changed bool
	cleared bool
}

func NewCookieStore(c *gin.Context, cfg CookieConfig) *CookieStore {
	return &CookieStore{c: c, cfg: cfg, token: ReadCookie(c, cfg)}
}

func (s *CookieStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *CookieStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.changed = true
	s.cleared = false
	WriteCookie(s.c, s.cfg, token)
	return nil
}

func (s *CookieStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.changed = true
	s.cleared = true
	ClearCookie(s.c, s.cfg)
	return nil
}

// Cleared reports whether the credential was dropped during this request.
func (s *CookieStore) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

// Rotated reports whether a new credential was stored during this request.
func (s *CookieStore) Rotated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed && !s.cleared
}
