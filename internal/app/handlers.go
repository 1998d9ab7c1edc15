package app

import (
	"github.com/vidgist/vidgist-backend/internal/http/handlers"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type Handlers struct {
	Analysis *handlers.AnalysisHandler
	Credits  *handlers.CreditsHandler
	Notion   *handlers.NotionHandler
	Engine   *handlers.EngineHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Analysis: handlers.NewAnalysisHandler(services.Analysis),
		Credits:  handlers.NewCreditsHandler(services.Credit),
		Notion:   handlers.NewNotionHandler(services.Notion),
		Engine:   handlers.NewEngineHandler(services.Analysis),
	}
}
