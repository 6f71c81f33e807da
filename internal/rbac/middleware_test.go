package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cms-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(role string, guard gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: "u", Username: "name", Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, guard, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveWithRole(RoleAdmin, RequireAnyRole(RoleUser)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAdmin_UserForbidden(t *testing.T) {
	if code := serveWithRole(RoleUser, RequireAdmin()); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_RoleRequired(t *testing.T) {
	if code := serveWithRole("", RequireAnyRole(RoleUser)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAnyRole_UnknownRoleForbidden(t *testing.T) {
	if code := serveWithRole("Editor", RequireAnyRole(RoleUser)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestAllows(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    bool
	}{
		{RoleUser, []string{RoleUser}, true},
		{RoleUser, []string{RoleAdmin}, false},
		{RoleAdmin, []string{RoleUser}, true},
		{RoleUser, nil, true},
		{"", nil, false},
		{"Editor", []string{"Editor"}, false},
	}
	for _, tc := range cases {
		if got := Allows(tc.role, tc.allowed...); got != tc.want {
			t.Errorf("Allows(%q, %v) = %v, want %v", tc.role, tc.allowed, got, tc.want)
		}
	}
}

func TestHomePath(t *testing.T) {
	if got := HomePath(RoleAdmin); got != "/admin" {
		t.Fatalf("admin home = %q", got)
	}
	if got := HomePath(RoleUser); got != "/articles" {
		t.Fatalf("user home = %q", got)
	}
	if got := HomePath(""); got != "/articles" {
		t.Fatalf("unknown role home = %q", got)
	}
}
