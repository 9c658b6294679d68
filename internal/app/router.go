package app

import (
	"time"

	"skillwise_backend/docs"
	"skillwise_backend/internal/config"
	"skillwise_backend/internal/middleware"
	"skillwise_backend/pkg/monitoring"
	"skillwise_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 每个用户每分钟最多提交的评审数
const reviewSubmitPerMinute = 30

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.Use(middleware.RequestID())

	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerReviewRoutes(authGroup, c)
		a.registerLedgerRoutes(authGroup, c)
	}
}

func (a *App) registerReviewRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/reviews/queue", c.review.GetQueue)
	rg.GET("/submissions/:id", c.review.GetSubmission)
	rg.GET("/submissions/:id/reviews", c.review.ListReviews)
	rg.POST("/submissions/:id/reviews",
		security.RateLimiter(a.ctx, reviewSubmitPerMinute, time.Minute, security.ByUser),
		c.review.SubmitReview,
	)
}

func (a *App) registerLedgerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/statistics/me", c.statistics.GetMyStatistics)
	rg.GET("/statistics/:userId", c.statistics.GetUserStatistics)
	rg.GET("/leaderboard", c.leaderboard.GetLeaderboard)
}
