package httpapi

import (
	"net/http"
	"strconv"

	"cms-portal/internal/audit"
	"cms-portal/internal/cms"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// AdminGuard lets only Admin profiles through. The role comes from the
// upstream profile, never from the cookie. Non-admins are sent home.
func (h Handlers) AdminGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		prof, err := h.upstream(c).Auth.Profile(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		if prof.Role != cms.RoleAdmin {
			redirect(c, "/")
			return
		}
		c.Set(profileKey, prof)
		c.Next()
	}
}

func profileFrom(c *gin.Context) cms.User {
	if v, ok := c.Get(profileKey); ok {
		if u, ok := v.(cms.User); ok {
			return u
		}
	}
	return cms.User{}
}

type dashboardView struct {
	Profile    cms.User `json:"profile"`
	Articles   int      `json:"articles"`
	Categories int      `json:"categories"`
}

func (h Handlers) AdminDashboard(c *gin.Context) {
	up := h.upstream(c)
	view := dashboardView{Profile: profileFrom(c)}

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		page, err := up.Articles.List(ctx, cms.ListArticlesParams{Limit: 1})
		view.Articles = total(page)
		return err
	})
	g.Go(func() error {
		page, err := up.Categories.List(ctx, cms.ListCategoriesParams{Limit: 1})
		view.Categories = total(page)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Handlers) AdminArticles(c *gin.Context) {
	page, err := h.upstream(c).Articles.List(c.Request.Context(), cms.ArticleParamsFrom(c.Request.URL.Query()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h Handlers) AdminCategories(c *gin.Context) {
	page, err := h.upstream(c).Categories.List(c.Request.Context(), cms.ListCategoriesParams{
		Page:   queryInt(c, "page"),
		Limit:  queryLimit(c),
		Search: c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h Handlers) AdminCreateCategory(c *gin.Context) {
	var in cms.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	cat, err := h.upstream(c).Categories.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusCreated, "/admin/categories", cat)
}

func (h Handlers) AdminUpdateCategory(c *gin.Context) {
	var in cms.CategoryInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	cat, err := h.upstream(c).Categories.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusOK, "/admin/categories", cat)
}

func (h Handlers) AdminDeleteCategory(c *gin.Context) {
	if _, err := h.upstream(c).Categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	done(c, http.StatusOK, "/admin/categories", gin.H{"deleted": c.Param("id")})
}

// AdminRegisterUser creates an account with an explicit role. The upstream
// has no user listing, so the admin lands back on the dashboard.
func (h Handlers) AdminRegisterUser(c *gin.Context) {
	var in cms.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	rr, err := h.upstream(c).Users.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	role := in.Role
	if rr.User != nil && rr.User.Role != "" {
		role = rr.User.Role
	}
	if role == "" {
		role = cms.RoleUser
	}
	h.Audit.LogRegister(c.Request.Context(), in.Username, userID(rr.User), string(role), c.ClientIP())
	done(c, http.StatusCreated, "/admin", gin.H{"user": rr.User})
}

func (h Handlers) AdminAudit(c *gin.Context) {
	events, err := h.Audit.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func total[T any](p cms.Paginated[T]) int {
	if p.TotalData > 0 {
		return p.TotalData
	}
	if p.Total > 0 {
		return p.Total
	}
	return len(p.Data)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// queryLimit is the "limit" query value capped at cms.MaxPageLimit; 0 when absent.
func queryLimit(c *gin.Context) int {
	return min(queryInt(c, "limit"), cms.MaxPageLimit)
}
