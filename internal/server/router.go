package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vidgist/vidgist-backend/internal/http/handlers"
	"github.com/vidgist/vidgist-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	EngineMiddleware *middleware.EngineMiddleware
	AnalysisHandler  *handlers.AnalysisHandler
	CreditsHandler   *handlers.CreditsHandler
	NotionHandler    *handlers.NotionHandler
	EngineHandler    *handlers.EngineHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("vidgist-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/v1/notion/callback", cfg.NotionHandler.HandleCallback)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api/v1")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Analysis
	protected.POST("/analysis/standard", cfg.AnalysisHandler.SubmitStandard)
	protected.POST("/analysis/deep", cfg.AnalysisHandler.SubmitDeep)
	protected.GET("/analysis/jobs", cfg.AnalysisHandler.ListJobs)
	protected.GET("/analysis/jobs/:id", cfg.AnalysisHandler.GetJob)
	protected.GET("/analysis/results/:id", cfg.AnalysisHandler.GetResult)
	// Credits
	protected.GET("/credits/balance", cfg.CreditsHandler.GetBalance)
	protected.GET("/credits/transactions", cfg.CreditsHandler.ListTransactions)
	// Notion
	protected.GET("/notion/auth-url", cfg.NotionHandler.GetAuthURL)
	protected.GET("/notion/status", cfg.NotionHandler.GetStatus)
	protected.DELETE("/notion/connection", cfg.NotionHandler.Disconnect)
	protected.POST("/notion/export/session", cfg.NotionHandler.ExportToSession)
	protected.POST("/notion/export/:resultId", cfg.NotionHandler.ExportAnalysis)
	protected.POST("/notion/sync/:resultId", cfg.NotionHandler.SyncAnalysis)

	// ===============
	// || Engine    ||
	// ===============
	engine := router.Group("/internal/engine")
	engine.Use(cfg.EngineMiddleware.RequireSecret())
	engine.POST("/jobs/:id/processing", cfg.EngineHandler.MarkProcessing)
	engine.POST("/jobs/:id/progress", cfg.EngineHandler.UpdateProgress)
	engine.POST("/jobs/:id/complete", cfg.EngineHandler.Complete)
	engine.POST("/jobs/:id/fail", cfg.EngineHandler.Fail)

	// Scheduler-driven top-ups share the internal secret.
	internal := router.Group("/internal/credits")
	internal.Use(cfg.EngineMiddleware.RequireSecret())
	internal.POST("/:userId/grant-monthly", cfg.CreditsHandler.GrantMonthly)

	return router
}
