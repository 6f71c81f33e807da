package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGinContext(t *testing.T, cookie string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: cookie})
	}
	c.Request = req
	return c, w
}

func TestWriteCookie_Attributes(t *testing.T) {
	c, w := newGinContext(t, "")
	WriteCookie(c, CookieConfig{Secure: true}, "abc")

	set := w.Header().Get("Set-Cookie")
	assert.Contains(t, set, "token=abc")
	assert.Contains(t, set, "Path=/")
	assert.Contains(t, set, "Max-Age=604800")
	assert.Contains(t, set, "SameSite=Lax")
	assert.Contains(t, set, "HttpOnly")
	assert.Contains(t, set, "Secure")
}

func TestClearCookie_Expires(t *testing.T) {
	c, w := newGinContext(t, "abc")
	ClearCookie(c, CookieConfig{})

	set := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(set, "token=;"), set)
	assert.Contains(t, set, "Max-Age=0")
}

func TestCookieStore_ReadWriteClear(t *testing.T) {
	ctx := context.Background()
	c, w := newGinContext(t, "old")
	s := NewCookieStore(c, CookieConfig{Name: "token"})

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", tok)
	assert.False(t, s.Rotated())

	require.NoError(t, s.SetToken(ctx, "new"))
	tok, _ = s.Token(ctx)
	assert.Equal(t, "new", tok)
	assert.True(t, s.Rotated())
	assert.Contains(t, w.Header().Values("Set-Cookie")[0], "token=new")

	require.NoError(t, s.ClearToken(ctx))
	tok, _ = s.Token(ctx)
	assert.Empty(t, tok)
	assert.True(t, s.Cleared())
	assert.False(t, s.Rotated())
}

func TestCookieStore_NoCookie(t *testing.T) {
	c, _ := newGinContext(t, "")
	tok, err := NewCookieStore(c, CookieConfig{}).Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestFileStore_RoundTripAndPermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path, time.Hour)

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.SetToken(ctx, "abc"))
	tok, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.ClearToken(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, s.ClearToken(ctx), "clearing twice is fine")
}

func TestFileStore_ExpiresAfterMaxAge(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"), time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetToken(ctx, "abc"))

	now = now.Add(59 * time.Minute)
	tok, _ := s.Token(ctx)
	assert.Equal(t, "abc", tok)

	now = now.Add(time.Minute)
	tok, _ = s.Token(ctx)
	assert.Empty(t, tok)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewFileStore(path, 0).Token(context.Background())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("a")
	tok, _ := s.Token(ctx)
	assert.Equal(t, "a", tok)
	require.NoError(t, s.SetToken(ctx, "b"))
	tok, _ = s.Token(ctx)
	assert.Equal(t, "b", tok)
	require.NoError(t, s.ClearToken(ctx))
	tok, _ = s.Token(ctx)
	assert.Empty(t, tok)
}
