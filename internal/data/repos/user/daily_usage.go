package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type DailyUsageRepo interface {
	GetForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (*types.DailyUsage, error)
	IncrementForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time, mode string) error
}

type dailyUsageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyUsageRepo(db *gorm.DB, baseLog *logger.Logger) DailyUsageRepo {
	return &dailyUsageRepo{
		db:  db,
		log: baseLog.With("repo", "DailyUsageRepo"),
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *dailyUsageRepo) GetForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (*types.DailyUsage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var usage types.DailyUsage
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, truncateToDay(date)).
		Limit(1).
		Find(&usage).Error
	if err != nil {
		return nil, err
	}
	if usage.ID == uuid.Nil {
		return nil, nil
	}
	return &usage, nil
}

// IncrementForDate upserts the (user, day) row and bumps the counter
// for the given mode in one statement.
func (r *dailyUsageRepo) IncrementForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time, mode string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()

	column := "standard_count"
	usage := &types.DailyUsage{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      truncateToDay(date),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mode == types.ModeDeep {
		column = "deep_count"
		usage.DeepCount = 1
	} else {
		usage.StandardCount = 1
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				column:       gorm.Expr(column + " + 1"),
				"updated_at": now,
			}),
		}).
		Create(usage).Error
}
