package router

import (
	"time"

	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	auth.Use(middleware.RateLimit(r.Config.RateLimit.AuthRequest, time.Duration(r.Config.RateLimit.AuthDuration)*time.Second))
	{
		// Public routes (no authentication required)
		auth.POST("/signup", r.authHandler.SignUp)
		auth.POST("/signin", r.authHandler.SignIn)

		// The refresh token is the bearer credential here
		auth.GET("/refresh", r.authMw.RequireRefresh(), r.authHandler.Refresh)

		auth.POST("/logout", r.authMw.RequireAccess(), r.authHandler.Logout)
	}
}
