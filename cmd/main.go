package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/handler"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/internal/router"
	"github.com/Payphone-Digital/auth-service/internal/service"
	"github.com/Payphone-Digital/auth-service/pkg/cache"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/Payphone-Digital/auth-service/pkg/health"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if err := config.Validate(); err != nil {
		logger.GetLogger().Fatal("Invalid configuration", zap.Error(err))
	}

	if err := validation.RegisterWithGin(); err != nil {
		logger.GetLogger().Fatal("Failed to register validation rules", zap.Error(err))
	}

	if !config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(ctx, db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	// Revoked access tokens live in Redis when it is enabled so every replica
	// sees them; otherwise in process memory.
	var (
		denylist    service.TokenDenylist
		redisClient *redis.Client
	)
	if config.Redis.Enabled {
		redisClient, err = redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		breaker := circuit.NewBreaker("redis-denylist", circuit.DefaultConfig(), logger.GetLogger())
		denylist = repository.NewRedisTokenDenylist(redisClient, breaker)
	} else {
		memory := cache.NewCache()
		defer memory.Close()
		denylist = repository.NewMemoryTokenDenylist(memory)
	}

	logger.GetLogger().Info("Token denylist initialized",
		zap.Bool("redis", redisClient != nil),
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)

	// Services
	hasher := service.NewArgon2Hasher(service.Argon2ParamsFromConfig(config.Password))
	codec := service.NewTokenCodec(config.JWT)
	sessions := service.NewSessionManager(userRepo, hasher, codec, denylist)
	userService := service.NewUserService(userRepo, hasher)
	janitor := service.NewSessionJanitor(userRepo, config.Auth.SessionCleanupInterval)

	monitor := newHealthMonitor(db, redisClient)

	r := router.NewRouter(
		handler.NewUserHandler(userService, sessions),
		handler.NewAuthHandler(sessions, config.Auth.CollapseSignInErrors),
		handler.NewHealthHandler(monitor),

		middleware.NewAuthMiddleware(sessions),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.GetLogger().Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return janitor.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.GetLogger().Error("Server stopped with error", zap.Error(err))
		return
	}

	if redisClient != nil {
		logger.GetLogger().Info("Redis pool at shutdown", zap.Any("stats", redisClient.PoolStats()))
	}
	logger.GetLogger().Info("Server stopped")
}

// newHealthMonitor registers the database as critical. Redis is reported but
// never fails the service; a nil client shows up as disabled.
func newHealthMonitor(db *gorm.DB, redisClient *redis.Client) *health.Monitor {
	monitor := health.NewMonitor(30*time.Second, logger.GetLogger())

	monitor.Register("database", &health.PingChecker{
		Ping: func(ctx context.Context) error { return database.Ping(ctx, db) },
	}, true)

	redisChecker := &health.PingChecker{}
	if redisClient != nil {
		redisChecker.Ping = redisClient.Ping
	}
	monitor.Register("redis", redisChecker, false)

	return monitor
}
