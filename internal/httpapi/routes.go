package httpapi

import "github.com/gin-gonic/gin"

// Routes wires the portal pages. The access gate runs before these, so
// handlers only deal with what the upstream says.
func (h Handlers) Routes(r gin.IRouter) {
	r.Use(h.traceSession)

	r.GET("/", h.Home)

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)

	articles := r.Group("/articles")
	{
		articles.GET("", h.ListArticles)
		articles.GET("/create", h.NewArticleForm)
		articles.POST("/create", h.CreateArticle)
		articles.GET("/:id", h.GetArticle)
		articles.GET("/:id/edit", h.EditArticleForm)
		articles.POST("/:id/edit", h.UpdateArticle)
		articles.POST("/:id/delete", h.DeleteArticle)
	}

	admin := r.Group("/admin", h.AdminGuard())
	{
		admin.GET("", h.AdminDashboard)
		admin.GET("/articles", h.AdminArticles)
		admin.GET("/categories", h.AdminCategories)
		admin.POST("/categories", h.AdminCreateCategory)
		admin.POST("/categories/:id", h.AdminUpdateCategory)
		admin.POST("/categories/:id/delete", h.AdminDeleteCategory)
		admin.POST("/users", h.AdminRegisterUser)
		admin.GET("/audit", h.AdminAudit)
		admin.GET("/reports/activity", h.AdminActivityReport)
		admin.GET("/reports/content", h.AdminContentReport)
	}
}
