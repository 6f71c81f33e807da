package devapi

import (
	"net/http"

	"cms-portal/internal/auth"
	"cms-portal/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Routes wires the upstream contract onto r.
func Routes(r gin.IRouter, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := auth.RequireAccessTokenAt(h.Auth, h.now)

	a := r.Group("/auth")
	{
		a.POST("/login", h.Login)
		a.POST("/register", h.Register)
		a.POST("/refresh", h.Refresh)
		a.GET("/profile", authMW, h.Profile)
	}
	r.GET("/me", authMW, h.Profile)

	articles := r.Group("/articles")
	{
		articles.GET("", h.ListArticles)
		articles.GET("/:id", h.GetArticle)
		articles.POST("", authMW, rbac.RequireAnyRole(rbac.RoleUser), h.CreateArticle)
		articles.PUT("/:id", authMW, rbac.RequireAnyRole(rbac.RoleUser), h.UpdateArticle)
		articles.DELETE("/:id", authMW, rbac.RequireAnyRole(rbac.RoleUser), h.DeleteArticle)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", authMW, rbac.RequireAdmin(), h.CreateCategory)
		categories.PUT("/:id", authMW, rbac.RequireAdmin(), h.UpdateCategory)
		categories.DELETE("/:id", authMW, rbac.RequireAdmin(), h.DeleteCategory)
	}
}
