package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cms-portal/internal/apiclient"
	"cms-portal/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
	auth   string
}

func newUpstream(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			require.NoError(t, json.Unmarshal(b, &rec.body))
		}
		calls = append(calls, rec)
		reply(w, r)
	}))
	t.Cleanup(srv.Close)

	api, err := apiclient.New(session.NewMemoryStore("tok"), apiclient.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return NewClient(api), &calls
}

func TestArticles_ListEncodesFilters(t *testing.T) {
	c, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"a-1","title":"x"}],"totalData":1,"currentPage":2,"totalPages":1}`))
	})

	page, err := c.Articles.List(context.Background(), ListArticlesParams{UserID: "u-1", Title: " go ", Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "a-1", page.Data[0].ID)
	assert.Equal(t, 2, page.CurrentPage)

	got := (*calls)[0]
	assert.Equal(t, "/articles", got.path)
	assert.Equal(t, "u-1", got.query.Get("userId"))
	assert.Equal(t, "go", got.query.Get("title"))
	assert.Equal(t, "2", got.query.Get("page"))
	assert.Equal(t, "9", got.query.Get("limit"))
	assert.False(t, got.query.Has("category"))
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestArticles_CRUDPaths(t *testing.T) {
	c, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"a/1","success":true}`))
	})
	ctx := context.Background()
	in := ArticleInput{Title: "T", Content: "<p>c</p>", CategoryID: "c-tech"}

	_, err := c.Articles.Get(ctx, "a/1")
	require.NoError(t, err)
	_, err = c.Articles.Create(ctx, in)
	require.NoError(t, err)
	_, err = c.Articles.Update(ctx, "a-1", in)
	require.NoError(t, err)
	res, err := c.Articles.Delete(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, *calls, 4)
	assert.Equal(t, "/articles/a/1", (*calls)[0].path)
	assert.Equal(t, http.MethodPost, (*calls)[1].method)
	assert.Equal(t, "c-tech", (*calls)[1].body["categoryId"])
	assert.Equal(t, http.MethodPut, (*calls)[2].method)
	assert.Equal(t, "/articles/a-1", (*calls)[2].path)
	assert.Equal(t, http.MethodDelete, (*calls)[3].method)
}

func TestArticles_ValidatesInput(t *testing.T) {
	c, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	_, err := c.Articles.Create(ctx, ArticleInput{Title: "no category"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.Articles.Get(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, *calls)
}

func TestCategories_ListAndMutations(t *testing.T) {
	c, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"data":[{"id":"c-1","name":"Tech"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c-1","name":"Tech"}`))
	})
	ctx := context.Background()

	page, err := c.Categories.List(ctx, ListCategoriesParams{Search: "te"})
	require.NoError(t, err)
	assert.Equal(t, "Tech", page.Data[0].Name)
	assert.Equal(t, "te", (*calls)[0].query.Get("search"))
	assert.False(t, (*calls)[0].query.Has("page"))

	_, err = c.Categories.Create(ctx, CategoryInput{Name: "Tech"})
	require.NoError(t, err)
	_, err = c.Categories.Update(ctx, "c-1", CategoryInput{Name: "Tech"})
	require.NoError(t, err)
	_, err = c.Categories.Delete(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, *calls, 4)

	_, err = c.Categories.Create(ctx, CategoryInput{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAuth_LoginRegisterProfile(t *testing.T) {
	c, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"token":"jwt"}`))
		case "/auth/register":
			_, _ = w.Write([]byte(`{"user":{"id":"u-9","username":"carol","role":"User"}}`))
		case "/auth/profile":
			_, _ = w.Write([]byte(`{"id":"u-9","username":"carol","role":"Admin"}`))
		}
	})
	ctx := context.Background()

	lr, err := c.Auth.Login(ctx, "carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", lr.Token)

	rr, err := c.Auth.Register(ctx, RegisterInput{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, rr.Token)
	assert.Equal(t, "User", (*calls)[1].body["role"], "role defaults to User")

	u, err := c.Auth.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)

	_, err = c.Users.Register(ctx, RegisterInput{Username: "dave", Password: "pw", Role: "Owner"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAuth_LoginWithoutTokenFails(t *testing.T) {
	c, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.Auth.Login(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestArticleParamsFrom(t *testing.T) {
	q, _ := url.ParseQuery("page=abc&limit=-2&sortOrder=DESC&title=go&mine=1")
	p := ArticleParamsFrom(q)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)
	assert.Equal(t, "desc", p.SortOrder)
	assert.Equal(t, "go", p.Title)

	q, _ = url.ParseQuery("sortOrder=sideways")
	assert.Empty(t, ArticleParamsFrom(q).SortOrder)
}
