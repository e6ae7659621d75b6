package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// All user routes require an access token
		users.Use(r.authMw.RequireAccess())
		{
			users.GET("", r.userHandler.List)
			users.GET("/me", r.userHandler.Me)
			users.GET("/:id", r.userHandler.GetByID)

			// Owner only
			users.PATCH("/:id", r.userHandler.UpdateProfile)
			users.PUT("/:id/password", r.userHandler.ChangePassword)
			users.DELETE("/:id", r.userHandler.Delete)
		}
	}
}
