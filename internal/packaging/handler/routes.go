package handler

import (
	"github.com/bitfantasy/ppwr/internal/middleware"
	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /packaging 和 /users 路由
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	packaging := api.Group("/packaging")
	{
		packaging.GET("", h.Packaging.List)
		packaging.GET("/:id", h.Packaging.Get)

		authed := packaging.Group("", auth)
		authed.GET("/export", h.Packaging.Export)
		authed.POST("", h.Packaging.Create)
		authed.PUT("/:id", h.Packaging.Update)
		authed.DELETE("/:id", h.Packaging.Delete)
		authed.POST("/:id/documents", h.Document.Upload)
		authed.DELETE("/documents/:documentId", h.Document.Delete)
	}

	users := api.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)

		authed := users.Group("", auth)
		authed.GET("/:userId", h.User.Get)
		authed.PUT("/update/:userId", h.User.Update)
		authed.DELETE("/:userId", h.User.Delete)
		authed.GET("/all/admin", middleware.RequireRole(entity.RoleAdmin), h.User.List)
	}
}
