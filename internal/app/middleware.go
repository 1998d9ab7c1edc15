package app

import (
	"github.com/vidgist/vidgist-backend/internal/middleware"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type Middleware struct {
	Auth   *middleware.AuthMiddleware
	Engine *middleware.EngineMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:   middleware.NewAuthMiddleware(log, cfg.JWTSecretKey),
		Engine: middleware.NewEngineMiddleware(log, cfg.EngineSharedSecret),
	}
}
