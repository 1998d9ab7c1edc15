package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/envutil"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type PostgresService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	driver := envutil.GetEnv("DB_DRIVER", "postgres", log)

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		path := envutil.GetEnv("SQLITE_PATH", "vidgist.db", log)
		dialector = sqlite.Open(path)
	default:
		driver = "postgres"
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", log)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", log)
		dbUser := envutil.GetEnv("POSTGRES_USER", "postgres", log)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", log)
		name := envutil.GetEnv("POSTGRES_NAME", "vidgist", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, password, host, port, name)
		dialector = postgres.Open(dsn)
	}

	serviceLog.Info("Connecting to database...", "driver", driver)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if driver == "postgres" {
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
			return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
		}
	}

	return &PostgresService{db: gdb, driver: driver, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Profile{},
		&types.DailyUsage{},
		&types.CreditTransaction{},
		&types.AnalysisJob{},
		&types.AnalysisResult{},
		&types.ChatSession{},
		&types.NotionIntegration{},
		&types.NotionExport{},
		&types.NotionOAuthState{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.driver != "postgres" {
		return nil
	}
	s.log.Info("Configuring foreign key relationships...")
	for _, stmt := range []string{
		`ALTER TABLE "credit_transaction"
		 ADD CONSTRAINT "fk_credit_transaction_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "profile"("id") ON DELETE CASCADE`,
		`ALTER TABLE "analysis_job"
		 ADD CONSTRAINT "fk_analysis_job_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "profile"("id") ON DELETE CASCADE`,
		`ALTER TABLE "notion_export"
		 ADD CONSTRAINT "fk_notion_export_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "profile"("id") ON DELETE CASCADE`,
	} {
		if err := s.db.Exec(stmt).Error; err != nil {
			// Re-running migrations against an existing schema is fine.
			s.log.Debug("Foreign key statement skipped", "error", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
