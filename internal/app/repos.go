package app

import (
	"gorm.io/gorm"

	analysisrepo "github.com/vidgist/vidgist-backend/internal/data/repos/analysis"
	billingrepo "github.com/vidgist/vidgist-backend/internal/data/repos/billing"
	notionrepo "github.com/vidgist/vidgist-backend/internal/data/repos/notion"
	userrepo "github.com/vidgist/vidgist-backend/internal/data/repos/user"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type Repos struct {
	Profile      userrepo.ProfileRepo
	DailyUsage   userrepo.DailyUsageRepo
	CreditLedger billingrepo.CreditLedgerRepo
	Job          analysisrepo.JobRepo
	Result       analysisrepo.ResultRepo
	Session      analysisrepo.SessionRepo
	Integration  notionrepo.IntegrationRepo
	Export       notionrepo.ExportRepo
	OAuthState   notionrepo.OAuthStateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:      userrepo.NewProfileRepo(db, log),
		DailyUsage:   userrepo.NewDailyUsageRepo(db, log),
		CreditLedger: billingrepo.NewCreditLedgerRepo(db, log),
		Job:          analysisrepo.NewJobRepo(db, log),
		Result:       analysisrepo.NewResultRepo(db, log),
		Session:      analysisrepo.NewSessionRepo(db, log),
		Integration:  notionrepo.NewIntegrationRepo(db, log),
		Export:       notionrepo.NewExportRepo(db, log),
		OAuthState:   notionrepo.NewOAuthStateRepo(db, log),
	}
}
