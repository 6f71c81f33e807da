package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cms-portal/internal/config"

	"github.com/gin-gonic/gin"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
		RefreshWindow:  24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(t)

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, Identity{UserID: "user-1", Username: "alice", Role: "User"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.Role != "User" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, Identity{UserID: "u", Role: "User"})

	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	m := newManager(t)
	other, _ := NewManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "issuer", JWTAudience: "aud", AccessTokenTTL: time.Minute, RefreshWindow: time.Hour})
	now := time.Now()
	tok, _ := other.Issue(now, Identity{UserID: "u", Role: "User"})

	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestRefreshAcceptsExpiredTokenInsideWindow(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, Identity{UserID: "u", Username: "bob", Role: "Admin"})

	later := now.Add(2 * time.Hour)
	fresh, claims, err := m.Refresh(tok, later)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if claims.Role != "Admin" || claims.Username != "bob" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := m.Verify(fresh, later); err != nil {
		t.Fatalf("refreshed token should verify: %v", err)
	}
}

func TestRefreshRejectsAfterWindow(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, Identity{UserID: "u", Role: "User"})

	_, _, err := m.Refresh(tok, now.Add(25*time.Hour))
	if !errors.Is(err, ErrRefreshWindowClosed) {
		t.Fatalf("expected ErrRefreshWindowClosed, got %v", err)
	}
}

func TestIssueRequiresIdentity(t *testing.T) {
	m := newManager(t)
	if _, err := m.Issue(time.Now(), Identity{Username: "x"}); !errors.Is(err, ErrMalformedClaims) {
		t.Fatalf("expected ErrMalformedClaims, got %v", err)
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newManager(t)
	tok, _ := m.Issue(time.Now(), Identity{UserID: "u-1", Username: "alice", Role: "User"})

	r := gin.New()
	r.GET("/me", RequireAccessToken(m), func(c *gin.Context) {
		id, err := IdentityFrom(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.UserID+"/"+id.Username)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + tok, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
		if tc.want == http.StatusOK && w.Body.String() != "u-1/alice" {
			t.Fatalf("unexpected identity %q", w.Body.String())
		}
	}
}
