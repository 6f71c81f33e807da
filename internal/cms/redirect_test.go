package cms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"/articles?mine=1":       "/articles?mine=1",
		"/articles/a-1/edit":     "/articles/a-1/edit",
		"articles":               "",
		"//evil.example/x":       "",
		"/\\evil.example":        "",
		"https://evil.example/":  "",
		"/ok\r\nSet-Cookie: x=y": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in), "next=%q", in)
	}
}

func TestAfterLoginPath(t *testing.T) {
	assert.Equal(t, "/admin", AfterLoginPath(RoleAdmin, ""))
	assert.Equal(t, "/articles", AfterLoginPath(RoleUser, ""))
	assert.Equal(t, "/articles?mine=1", AfterLoginPath(RoleUser, "/articles?mine=1"))
	assert.Equal(t, "/articles", AfterLoginPath(RoleUser, "//evil.example"))
	assert.Equal(t, "/admin", AfterLoginPath(RoleAdmin, "/login?next=/x"))
	assert.Equal(t, "/articles", AfterLoginPath(RoleUser, "/register/"))
}
