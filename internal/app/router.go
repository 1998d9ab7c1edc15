package app

import (
	"github.com/gin-gonic/gin"

	"github.com/vidgist/vidgist-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:   middleware.Auth,
		EngineMiddleware: middleware.Engine,
		AnalysisHandler:  handlers.Analysis,
		CreditsHandler:   handlers.Credits,
		NotionHandler:    handlers.Notion,
		EngineHandler:    handlers.Engine,
	})
}
