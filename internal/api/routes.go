package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"folioforge/internal/ai"
	"folioforge/internal/api/middleware"
	"folioforge/internal/auth"
	"folioforge/internal/config"
	"folioforge/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	storageClient *storage.Client,
	aiClient *ai.Client,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.Auth.LoginRatePerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL())
	resumeHandler := NewResumeHandler(db, asynqClient, storageClient, redisClient, logger,
		cfg.Upload.ClamdAddr, cfg.Upload.MaxFileBytes)
	templateHandler := NewTemplateHandler(db)
	portfolioHandler := NewPortfolioHandler(db)
	optimizationHandler := NewOptimizationHandler(db, asynqClient, aiClient, logger)
	dashboardHandler := NewDashboardHandler(db)
	pagesHandler := NewPagesHandler()
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		// 营销站公开内容。
		v1.GET("/templates", templateHandler.ListTemplates)
		v1.GET("/templates/:id", templateHandler.GetTemplate)
		pagesGroup := v1.Group("/pages")
		{
			pagesGroup.GET("/features", pagesHandler.GetFeatures)
			pagesGroup.GET("/pricing", pagesHandler.GetPricing)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("/upload", resumeHandler.UploadResumes)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
		}

		portfolioGroup := v1.Group("/portfolios")
		portfolioGroup.Use(authMiddleware)
		{
			portfolioGroup.GET("/draft", portfolioHandler.GetDraft)
			portfolioGroup.POST("", portfolioHandler.CreatePortfolio)
			portfolioGroup.GET("", portfolioHandler.ListPortfolios)
			portfolioGroup.GET("/:id", portfolioHandler.GetPortfolio)
			portfolioGroup.DELETE("/:id", portfolioHandler.DeletePortfolio)
		}

		optimizationGroup := v1.Group("/optimizations")
		optimizationGroup.Use(authMiddleware)
		{
			optimizationGroup.POST("", optimizationHandler.CreateOptimization)
			optimizationGroup.GET("", optimizationHandler.ListOptimizations)
			optimizationGroup.GET("/:id", optimizationHandler.GetOptimization)
			optimizationGroup.GET("/:id/export", optimizationHandler.ExportOptimization)
		}

		dashboardGroup := v1.Group("/dashboard")
		dashboardGroup.Use(authMiddleware)
		{
			dashboardGroup.GET("/stats", dashboardHandler.GetStats)
		}

		// 规划中的管理界面，先占位。
		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware)
		{
			adminGroup.Any("/content-editor", notImplemented)
			adminGroup.Any("/domain-settings", notImplemented)
			adminGroup.Any("/analytics", notImplemented)
		}
	}
}

func notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "not implemented"})
}
