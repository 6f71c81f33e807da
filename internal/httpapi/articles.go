package httpapi

import (
	"context"
	"net/http"

	"cms-portal/internal/access"
	"cms-portal/internal/cms"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const homeLatest = 3

type homeView struct {
	Latest     []cms.Article  `json:"latest"`
	Categories []cms.Category `json:"categories"`
	Fallback   bool           `json:"fallback,omitempty"`
}

type articlesView struct {
	Articles   cms.Paginated[cms.Article] `json:"articles"`
	Categories []cms.Category             `json:"categories"`
	Mine       bool                       `json:"mine"`
	Profile    *cms.User                  `json:"profile,omitempty"`
	Fallback   bool                       `json:"fallback,omitempty"`
}

type articleView struct {
	Article  cms.Article `json:"article"`
	Fallback bool        `json:"fallback,omitempty"`
}

type articleFormView struct {
	Article    *cms.Article   `json:"article,omitempty"`
	Categories []cms.Category `json:"categories"`
	CanEdit    bool           `json:"canEdit"`
}

// categoriesOrSample loads the category catalogue, degrading to sample data.
func categoriesOrSample(ctx context.Context, up upstream) ([]cms.Category, bool, error) {
	params := cms.ListCategoriesParams{Limit: 100}
	return cms.WithFallback(ctx, func(ctx context.Context) ([]cms.Category, error) {
		page, err := up.Categories.List(ctx, params)
		return page.Data, err
	}, func() []cms.Category { return cms.FallbackCategories(params).Data })
}

func (h Handlers) Home(c *gin.Context) {
	up := h.upstream(c)
	key, guest := h.guestKey(c, up)
	if guest && h.serveCached(c, key) {
		return
	}

	params := cms.ListArticlesParams{Limit: homeLatest, SortBy: "createdAt", SortOrder: "desc"}
	var (
		view             homeView
		latestFB, catsFB bool
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		page, used, err := cms.WithFallback(ctx, func(ctx context.Context) (cms.Paginated[cms.Article], error) {
			return up.Articles.List(ctx, params)
		}, func() cms.Paginated[cms.Article] { return cms.FallbackArticles(params) })
		view.Latest, latestFB = page.Data, used
		return err
	})
	g.Go(func() error {
		var err error
		view.Categories, catsFB, err = categoriesOrSample(ctx, up)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	view.Fallback = latestFB || catsFB
	if view.Fallback {
		key = ""
	}
	h.render(c, key, view)
}

// ListArticles serves /articles. With the mine flag it resolves the signed-in
// profile and filters by author; the access gate has already ensured a credential.
func (h Handlers) ListArticles(c *gin.Context) {
	up := h.upstream(c)
	q := c.Request.URL.Query()
	params := cms.ArticleParamsFrom(q)
	mine := access.QueryFlag(c.Request.URL.RawQuery, "mine")

	key, guest := h.guestKey(c, up)
	if mine {
		key, guest = "", false
	}
	if guest && h.serveCached(c, key) {
		return
	}

	view := articlesView{Mine: mine}
	var listFB, catsFB bool
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		view.Categories, catsFB, err = categoriesOrSample(ctx, up)
		return err
	})
	g.Go(func() error {
		if mine {
			prof, err := up.Auth.Profile(ctx)
			if err != nil {
				return err
			}
			view.Profile = &prof
			params.UserID = prof.ID
			// Sample data never belongs to the visitor, so no fallback here.
			view.Articles, err = up.Articles.List(ctx, params)
			return err
		}
		var err error
		view.Articles, listFB, err = cms.WithFallback(ctx, func(ctx context.Context) (cms.Paginated[cms.Article], error) {
			return up.Articles.List(ctx, params)
		}, func() cms.Paginated[cms.Article] { return cms.FallbackArticles(params) })
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	view.Fallback = listFB || catsFB
	if !guest || view.Fallback {
		key = ""
	}
	h.render(c, key, view)
}

func (h Handlers) GetArticle(c *gin.Context) {
	up := h.upstream(c)
	key, guest := h.guestKey(c, up)
	if guest && h.serveCached(c, key) {
		return
	}

	id := c.Param("id")
	a, err := up.Articles.Get(c.Request.Context(), id)
	view := articleView{Article: a}
	if cms.Degraded(err) {
		sample, ok := cms.FallbackArticle(id)
		if !ok {
			h.fail(c, err)
			return
		}
		view = articleView{Article: sample, Fallback: true}
		key = ""
	} else if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, key, view)
}

func (h Handlers) NewArticleForm(c *gin.Context) {
	up := h.upstream(c)
	page, err := up.Categories.List(c.Request.Context(), cms.ListCategoriesParams{Limit: 100})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, articleFormView{Categories: page.Data, CanEdit: true})
}

func (h Handlers) CreateArticle(c *gin.Context) {
	var in cms.ArticleInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	a, err := h.upstream(c).Articles.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusCreated, "/articles/"+a.ID, articleView{Article: a})
}

// EditArticleForm loads the article, the categories and the profile together.
func (h Handlers) EditArticleForm(c *gin.Context) {
	up := h.upstream(c)
	id := c.Param("id")

	var (
		a    cms.Article
		cats cms.Paginated[cms.Category]
		prof cms.User
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) { a, err = up.Articles.Get(ctx, id); return })
	g.Go(func() (err error) { cats, err = up.Categories.List(ctx, cms.ListCategoriesParams{Limit: 100}); return })
	g.Go(func() (err error) { prof, err = up.Auth.Profile(ctx); return })
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, articleFormView{
		Article:    &a,
		Categories: cats.Data,
		CanEdit:    prof.Role == cms.RoleAdmin || prof.ID == a.UserID,
	})
}

func (h Handlers) UpdateArticle(c *gin.Context) {
	var in cms.ArticleInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	a, err := h.upstream(c).Articles.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusOK, "/articles/"+a.ID, articleView{Article: a})
}

func (h Handlers) DeleteArticle(c *gin.Context) {
	if _, err := h.upstream(c).Articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusOK, "/articles?mine=1", gin.H{"deleted": c.Param("id")})
}
