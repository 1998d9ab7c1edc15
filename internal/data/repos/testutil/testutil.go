package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a shared in-memory sqlite database by default, or postgres
// when TEST_POSTGRES_DSN is set.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}

		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			db, dbErr = gorm.Open(postgres.Open(dsn), cfg)
			if dbErr != nil {
				return
			}
			if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
				dbErr = err
				return
			}
		} else {
			db, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
			if dbErr != nil {
				return
			}
		}

		dbErr = autoMigrateAll(db)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// SeedProfile inserts a profile with the given plan and balance.
func SeedProfile(tb testing.TB, tx *gorm.DB, plan string, credits int) *types.Profile {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Profile{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Role:      "USER",
		Plan:      plan,
		Credits:   credits,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedSession(tb testing.TB, tx *gorm.DB, userID uuid.UUID) *types.ChatSession {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "test session",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
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
}
