package router

import (
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/handler"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

const signInPath = "/api/v1/auth/signin"

type Router struct {
	userHandler   *handler.UserHandler
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler

	authMw *middleware.AuthMiddleware
	Config *config.Config
}

func NewRouter(
	user *handler.UserHandler,
	auth *handler.AuthHandler,
	health *handler.HealthHandler,

	authMw *middleware.AuthMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		userHandler:   user,
		authHandler:   auth,
		healthHandler: health,

		authMw: authMw,
		Config: config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestContext(r.Config.App.Timeout))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware(signInPath))
	router.Use(middleware.CORS(r.Config.App.CORSOrigins))

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)
		api.GET("/ping", r.healthHandler.BasicHealth)

		v1 := api.Group("/v1")
		{
			v1.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))

			r.authRoutes(v1)
			r.userRoutes(v1)
		}
	}

	return router
}
