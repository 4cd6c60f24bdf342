package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/role-admin/internal/config"
	"github.com/Baaaki/role-admin/internal/database"
	"github.com/Baaaki/role-admin/internal/handler"
	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/Baaaki/role-admin/internal/session"
	"github.com/Baaaki/role-admin/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	if err := database.Migrate(database.DB); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := database.SeedDefaults(database.DB); err != nil {
		logger.Log.Fatal("Failed to seed default roles and statuses", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	sessions := session.NewManager(session.NewRedisStore(redisClient, cfg.SessionTTL), cfg.SessionSecret)

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	roleRepo := repository.NewRoleRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessions)
	userService := service.NewUserService(userRepo, roleRepo)
	roleService := service.NewRoleService(roleRepo)
	orderService := service.NewOrderService(orderRepo)
	auditService := service.NewAuditService(auditRepo, cfg.AuditLogLimit)

	limiterConfig := middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	}

	routes := handler.Routes{
		Auth:            handler.NewAuthHandler(authService, userService, cfg.IsProduction()),
		Users:           handler.NewUserHandler(userService),
		Roles:           handler.NewRoleHandler(roleService),
		Orders:          handler.NewOrderHandler(orderService),
		Audit:           handler.NewAuditHandler(auditService),
		Sessions:        sessions,
		LoginLimiter:    middleware.NewRateLimiter(redisClient, "login", limiterConfig),
		RegisterLimiter: middleware.NewRateLimiter(redisClient, "register", limiterConfig),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err == nil {
			err = redisClient.Ping(c.Request.Context()).Err()
		}
		if err != nil {
			logger.Log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	routes.Mount(router)

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.String("database_driver", cfg.DatabaseDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
}
