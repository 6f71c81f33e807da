package devapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cms-portal/internal/auth"
	"cms-portal/internal/cms"
	"cms-portal/internal/rbac"
	"cms-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers serve the upstream CMS API contract.
// Keep these thin: parse input, call the store, return JSON.
type Handlers struct {
	Auth  *auth.Manager
	Store *Store
	Now   func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type credentials struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Role     cms.Role `json:"role"`
}

func (h Handlers) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.Store.Authenticate(req.Username, req.Password)
	if err != nil {
		abort(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	tok, err := h.issue(u)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		abort(c, http.StatusInternalServerError, "token issuance failed")
		return
	}
	c.JSON(http.StatusOK, cms.LoginResponse{Token: tok})
}

// Register creates an account. Self-registration gets a token back; an
// admin registering someone else (bearer present) does not.
func (h Handlers) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	var actor *auth.Claims
	if raw := auth.BearerToken(c); raw != "" {
		claims, err := h.Auth.Verify(raw, h.now())
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if !rbac.IsAdmin(claims.Role) {
			abort(c, http.StatusForbidden, "only admins can register other users")
			return
		}
		actor = &claims
	}

	u, err := h.Store.CreateUser(req.Username, req.Password, req.Role)
	if err != nil {
		storeError(c, err)
		return
	}
	resp := cms.RegisterResponse{User: &u}
	if actor == nil {
		if resp.Token, err = h.issue(u); err != nil {
			abort(c, http.StatusInternalServerError, "token issuance failed")
			return
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// Refresh exchanges the bearer token for a new one while it is inside the
// refresh window, even when it has already expired.
func (h Handlers) Refresh(c *gin.Context) {
	raw := auth.BearerToken(c)
	if raw == "" {
		abort(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	tok, claims, err := h.Auth.Refresh(raw, h.now())
	if err != nil {
		abort(c, http.StatusUnauthorized, "refresh rejected")
		return
	}
	// Deleted accounts cannot refresh.
	if _, err := h.Store.User(claims.UserID); err != nil {
		abort(c, http.StatusUnauthorized, "unknown user")
		return
	}
	c.JSON(http.StatusOK, cms.LoginResponse{Token: tok})
}

func (h Handlers) Profile(c *gin.Context) {
	u, ok := h.actor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

// --- Articles ---

func (h Handlers) ListArticles(c *gin.Context) {
	f := ArticleFilter{
		ArticleID: c.Query("articleId"),
		UserID:    c.Query("userId"),
		Title:     c.Query("title"),
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: strings.ToLower(c.Query("sortOrder")),
		Page:      queryInt(c, "page", 1),
		Limit:     queryLimit(c),
	}
	var err error
	if f.CreatedAtStart, err = queryDate(c, "createdAtStart"); err != nil {
		abort(c, http.StatusBadRequest, "createdAtStart must be YYYY-MM-DD")
		return
	}
	if f.CreatedAtEnd, err = queryDate(c, "createdAtEnd"); err != nil {
		abort(c, http.StatusBadRequest, "createdAtEnd must be YYYY-MM-DD")
		return
	}
	c.JSON(http.StatusOK, h.Store.ListArticles(f))
}

func (h Handlers) GetArticle(c *gin.Context) {
	a, err := h.Store.Article(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) CreateArticle(c *gin.Context) {
	u, ok := h.actor(c)
	if !ok {
		return
	}
	var in cms.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.Store.CreateArticle(u.ID, in)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) UpdateArticle(c *gin.Context) {
	u, ok := h.actor(c)
	if !ok {
		return
	}
	var in cms.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.Store.UpdateArticle(c.Param("id"), u, in)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) DeleteArticle(c *gin.Context) {
	u, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteArticle(c.Param("id"), u); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cms.DeleteResult{Success: true})
}

// --- Categories ---

func (h Handlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ListCategories(CategoryFilter{
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryLimit(c),
	}))
}

func (h Handlers) CreateCategory(c *gin.Context) {
	u, ok := h.actor(c)
	if !ok {
		return
	}
	var in cms.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	cat, err := h.Store.CreateCategory(u.ID, in.Name)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h Handlers) UpdateCategory(c *gin.Context) {
	var in cms.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	cat, err := h.Store.UpdateCategory(c.Param("id"), in.Name)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h Handlers) DeleteCategory(c *gin.Context) {
	if err := h.Store.DeleteCategory(c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cms.DeleteResult{Success: true})
}

// --- helpers ---

func (h Handlers) issue(u cms.User) (string, error) {
	return h.Auth.Issue(h.now(), auth.Identity{UserID: u.ID, Username: u.Username, Role: string(u.Role)})
}

// actor resolves the authenticated user; it aborts with 401 when the account is gone.
func (h Handlers) actor(c *gin.Context) (cms.User, bool) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		abort(c, http.StatusUnauthorized, "unauthenticated")
		return cms.User{}, false
	}
	u, err := h.Store.User(id.UserID)
	if err != nil {
		abort(c, http.StatusUnauthorized, "unknown user")
		return cms.User{}, false
	}
	return u, true
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		abort(c, http.StatusNotFound, "not found")
	case errors.Is(err, ErrInvalidArgument):
		abort(c, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrConflict):
		abort(c, http.StatusConflict, "conflict")
	case errors.Is(err, ErrForbidden):
		abort(c, http.StatusForbidden, "forbidden")
	default:
		logger.FromGin(c).Error("store failure", "err", err)
		abort(c, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func queryLimit(c *gin.Context) int {
	return min(queryInt(c, "limit", 10), cms.MaxPageLimit)
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, v)
}
