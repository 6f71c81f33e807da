package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, observed *[]Decision) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(newDefaultClassifier(t), MiddlewareOptions{
		CookieName: "token",
		Observe: func(c *gin.Context, d Decision) {
			if observed != nil {
				*observed = append(*observed, d)
			}
		},
	}))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/articles", ok)
	r.GET("/articles/:id", ok)
	r.POST("/articles/create", ok)
	r.GET("/login", ok)
	r.GET("/static/app.css", ok)
	return r
}

func TestMiddleware_RedirectsAnonymousToLogin(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles?mine=1", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/login?next=%2Farticles%3Fmine%3D1", w.Header().Get("Location"))
}

func TestMiddleware_PostRedirectUsesSeeOther(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/articles/create", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Farticles%2Fcreate", w.Header().Get("Location"))
}

func TestMiddleware_AllowsWithCredential(t *testing.T) {
	var seen []Decision
	r := newRouter(t, &seen)

	req := httptest.NewRequest(http.MethodGet, "/articles?mine=1", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, seen, 1)
	assert.Equal(t, Allow, seen[0].Action)
	assert.Equal(t, Private, seen[0].Visibility)
}

func TestMiddleware_EmptyCookieIsNoCredential(t *testing.T) {
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/articles/create", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestMiddleware_SignedInVisitorLeavesLogin(t *testing.T) {
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/articles", w.Header().Get("Location"))
}

func TestMiddleware_SkipsStaticAssets(t *testing.T) {
	var seen []Decision
	r := newRouter(t, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, seen)
}

func TestMiddleware_PublicDetailAllowed(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/abc123", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
