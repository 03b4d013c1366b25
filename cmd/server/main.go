package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/config"
	"linkhub/internal/handler"
	"linkhub/internal/middleware"
	"linkhub/internal/model"
	"linkhub/internal/service"
	"linkhub/internal/shortcode"
	"linkhub/internal/tasks"
	"linkhub/pkg/database"
	auth "linkhub/pkg/jwt"
	"linkhub/pkg/logger"
	"linkhub/pkg/redis"

	_ "linkhub/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title LinkHub API
// @version 1.0
// @description 短链接解析与点击计账服务
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	logger.InitLogger()
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := zap.S()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		sugaredLogger.Fatalf("配置加载失败: %v", err)
	}

	db, err := database.InitMySQL(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库连接成功")

	err = db.AutoMigrate(&model.User{}, &model.ShortLink{}, &model.ClickRecord{})
	if err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	// 快取层：优先 Redis，未配置时退回进程内实现
	var store cache.Store
	if cfg.Cache.Host != "" {
		rdb, err := redis.NewRedisClient(&redis.Options{
			Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
		})
		if err != nil {
			sugaredLogger.Fatalf("缓存连接失败: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		store = cache.NewRedisStore(rdb)
		sugaredLogger.Info("✅ 缓存连接成功")
	} else {
		store = cache.NewMemoryStore()
		sugaredLogger.Warn("⚠️ 未配置 Redis，使用进程内缓存（重启丢失计数）")
	}

	generator := shortcode.NewGenerator(cfg.ShortLink.CodeLength, cfg.ShortLink.MaxRetries)
	registry := service.NewRegistry(db, store, generator, sugaredLogger)
	resolver := service.NewResolver(db, store, cfg.CacheTTL(), sugaredLogger)
	accumulator := service.NewAccumulator(db, store, sugaredLogger)

	// 点击数回写任务，独立于请求流量
	reconciler := tasks.NewReconciler(accumulator, cfg.ReconcileInterval(), sugaredLogger)
	reconciler.Start()
	defer reconciler.Stop()
	sugaredLogger.Info("✅ 点击数回写任务已启动")

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	sugaredLogger.Info("✅ 认证管理器初始化成功")

	if err := createAdminUser(db); err != nil {
		sugaredLogger.Errorf("创建管理员失败: %v", err)
	}

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.GlobalRateLimit(&cfg.RateLimit))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authMiddleware := middleware.AuthMiddleware(tokenManager)
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(store, cfg.RateWindow(), cfg.RateLimit.Threshold, sugaredLogger)
	}

	urlHandler := handler.NewShortLinkHandler(registry, resolver, accumulator, sugaredLogger)
	authHandler := handler.NewAuthHandler(db, tokenManager, sugaredLogger)

	registerRoutes(router, urlHandler, authHandler, authMiddleware, rateLimiter)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
	sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugaredLogger.Fatalf("服务启动失败: %v", err)
	}
}

func registerRoutes(
	router *gin.Engine,
	urlHandler *handler.ShortLinkHandler,
	authHandler *handler.AuthHandler,
	authMiddleware gin.HandlerFunc,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/health", urlHandler.HealthCheck)

	// 跳转走独立的按 IP 限流
	if rateLimiter != nil {
		router.GET("/:code", rateLimiter.Handler(), urlHandler.RedirectToOriginal)
	} else {
		router.GET("/:code", urlHandler.RedirectToOriginal)
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/me", authHandler.GetCurrentUser)
		api.POST("/shorten", urlHandler.CreateShortLink)
		api.GET("/links", urlHandler.GetLinks)
		api.GET("/links/:code", urlHandler.GetLink)
		api.PATCH("/links/:code", urlHandler.UpdateLink)
		api.DELETE("/links/:code", urlHandler.DeleteLink)
		api.GET("/links/:code/clicks", urlHandler.GetLinkClicks)
		api.GET("/stats", urlHandler.GetStats)
	}
}

func createAdminUser(db *gorm.DB) error {
	var existing model.User
	if err := db.Where("username = ?", "admin").First(&existing).Error; err == nil {
		return nil
	}

	admin := model.User{Username: "admin", Email: "admin@linkhub.dev", Role: "admin", IsActive: true}
	if err := admin.SetPassword("admin"); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	zap.S().Infow("✅ 默认管理员创建成功", "username", "admin")
	return nil
}
