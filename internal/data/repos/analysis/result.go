package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type ResultRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnalysisResult, error)
	GetByVideoAndMode(ctx context.Context, tx *gorm.DB, videoID, mode string) (*types.AnalysisResult, error)
	Upsert(ctx context.Context, tx *gorm.DB, result *types.AnalysisResult) (*types.AnalysisResult, error)
}

type resultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResultRepo(db *gorm.DB, baseLog *logger.Logger) ResultRepo {
	return &resultRepo{
		db:  db,
		log: baseLog.With("repo", "ResultRepo"),
	}
}

func (r *resultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnalysisResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.AnalysisResult
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) GetByVideoAndMode(ctx context.Context, tx *gorm.DB, videoID, mode string) (*types.AnalysisResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if videoID == "" {
		return nil, nil
	}
	var result types.AnalysisResult
	err := transaction.WithContext(ctx).
		Where("video_id = ? AND mode = ?", videoID, mode).
		Limit(1).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	if result.ID == uuid.Nil {
		return nil, nil
	}
	return &result, nil
}

// Upsert writes the result keyed on (video_id, mode). Concurrent
// completions for the same video converge on one row; payload fields
// are refreshed, the row identity stays stable. The returned result
// carries the persisted ID, which may differ from the input's when
// another writer created the row first.
func (r *resultRepo) Upsert(ctx context.Context, tx *gorm.DB, result *types.AnalysisResult) (*types.AnalysisResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "video_id"}, {Name: "mode"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"video_url",
				"video_title",
				"video_thumbnail",
				"video_duration_seconds",
				"result_json",
				"transcript",
				"updated_at",
			}),
		}).
		Create(result).Error
	if err != nil {
		return nil, err
	}

	var persisted types.AnalysisResult
	err = transaction.WithContext(ctx).
		Where("video_id = ? AND mode = ?", result.VideoID, result.Mode).
		First(&persisted).Error
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}
