package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vidgist/vidgist-backend/internal/platform/logger"
	"github.com/vidgist/vidgist-backend/internal/services"
)

type Services struct {
	Analysis services.AnalysisService
	Credit   services.CreditService
	Notion   services.NotionService
}

func wireServices(db *gorm.DB, log *logger.Logger, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	analysis := services.NewAnalysisService(
		db,
		repos.Profile,
		repos.DailyUsage,
		repos.CreditLedger,
		repos.Job,
		repos.Result,
		clients.Engine,
		clients.JobBus,
		log,
	)

	credit := services.NewCreditService(db, repos.Profile, repos.CreditLedger, log)

	notion, err := services.NewNotionService(
		db,
		repos.Integration,
		repos.Export,
		repos.OAuthState,
		repos.Session,
		repos.Job,
		repos.Result,
		clients.Notion,
		clients.Cipher,
		log,
	)
	if err != nil {
		return Services{}, fmt.Errorf("init notion service: %w", err)
	}

	return Services{
		Analysis: analysis,
		Credit:   credit,
		Notion:   notion,
	}, nil
}
