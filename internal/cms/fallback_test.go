package cms

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"cms-portal/internal/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	p := Paginate(items, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, p.Data)
	assert.Equal(t, 7, p.Total)
	assert.Equal(t, 7, p.TotalData)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 3, p.TotalPages)

	last := Paginate(items, 3, 3)
	assert.Equal(t, []int{7}, last.Data)

	past := Paginate(items, 9, 3)
	assert.Empty(t, past.Data)
	assert.NotNil(t, past.Data)

	def := Paginate(items, 0, 0)
	assert.Len(t, def.Data, 7)
	assert.Equal(t, 1, def.Page)
	assert.Equal(t, DefaultPageLimit, def.Limit)

	empty := Paginate([]int(nil), 1, 5)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestPaginate_HugePageAndLimit(t *testing.T) {
	items := []int{1, 2, 3}

	all := Paginate(items, 1, math.MaxInt)
	assert.Equal(t, items, all.Data)
	assert.Equal(t, 1, all.TotalPages)

	assert.Empty(t, Paginate(items, 2, math.MaxInt).Data)
	assert.Empty(t, Paginate(items, math.MaxInt, math.MaxInt).Data)
	assert.Empty(t, Paginate(items, math.MaxInt, 2).Data)
}

func TestFallbackArticles_OversizedQuery(t *testing.T) {
	q, err := url.ParseQuery("page=2&limit=9223372036854775807")
	require.NoError(t, err)
	params := ArticleParamsFrom(q)
	assert.Equal(t, MaxPageLimit, params.Limit)

	assert.NotPanics(t, func() {
		page := FallbackArticles(params)
		assert.Empty(t, page.Data)
	})
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()
	sample := func() []string { return []string{"sample"} }

	v, used, err := WithFallback(ctx, func(context.Context) ([]string, error) {
		return []string{"live"}, nil
	}, sample)
	require.NoError(t, err)
	assert.False(t, used)
	assert.Equal(t, []string{"live"}, v)

	v, used, err = WithFallback(ctx, func(context.Context) ([]string, error) {
		return nil, &apiclient.Error{Kind: apiclient.KindTransientServer, StatusCode: 503}
	}, sample)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, []string{"sample"}, v)

	_, used, err = WithFallback(ctx, func(context.Context) ([]string, error) {
		return nil, &apiclient.Error{Kind: apiclient.KindAuthExpired, StatusCode: 401}
	}, sample)
	assert.Equal(t, apiclient.KindAuthExpired, apiclient.KindOf(err))
	assert.False(t, used)

	_, used, err = WithFallback(ctx, func(context.Context) ([]string, error) {
		return nil, errors.New("boom")
	}, sample)
	assert.Error(t, err)
	assert.False(t, used)
}

func TestFallbackArticles_Filters(t *testing.T) {
	mine := FallbackArticles(ListArticlesParams{UserID: "u-1"})
	assert.Equal(t, 2, mine.TotalData)

	byTitle := FallbackArticles(ListArticlesParams{Title: "ROUTINES"})
	require.Len(t, byTitle.Data, 1)
	assert.Equal(t, "a-2", byTitle.Data[0].ID)

	paged := FallbackArticles(ListArticlesParams{Page: 2, Limit: 2})
	assert.Len(t, paged.Data, 1)
	assert.Equal(t, 2, paged.TotalPages)

	a, ok := FallbackArticle("a-3")
	assert.True(t, ok)
	assert.Equal(t, "News", a.Category.Name)
	_, ok = FallbackArticle("missing")
	assert.False(t, ok)
}

func TestFallbackCategories_Search(t *testing.T) {
	got := FallbackCategories(ListCategoriesParams{Search: "tech"})
	require.Len(t, got.Data, 1)
	assert.Equal(t, "c-tech", got.Data[0].ID)
	assert.Equal(t, 10, got.Limit)
}
