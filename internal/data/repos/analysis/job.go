package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type JobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, job *types.AnalysisJob) (*types.AnalysisJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnalysisJob, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.AnalysisJob, error)
	MarkProcessing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, resultID uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errorCode, errorMessage string) (bool, error)
	HasRunnableForVideo(ctx context.Context, tx *gorm.DB, userID uuid.UUID, videoID, mode string) (bool, error)
	HasJobForResult(ctx context.Context, tx *gorm.DB, userID, resultID uuid.UUID) (bool, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Create(ctx context.Context, tx *gorm.DB, job *types.AnalysisJob) (*types.AnalysisJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = types.JobStatusPending
	}
	if err := transaction.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AnalysisJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.AnalysisJob
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.AnalysisJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []*types.AnalysisJob
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkProcessing moves PENDING -> PROCESSING. Returns false when the
// job was already picked up or finished.
func (r *jobRepo) MarkProcessing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("id = ? AND status = ?", id, types.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     types.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateProgress only touches non-terminal jobs; a late progress
// report after completion or failure is a no-op.
func (r *jobRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("id = ? AND status NOT IN ?", id, types.JobTerminalStatuses).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

// MarkCompleted wins the terminal transition at most once. The
// RowsAffected check is what makes completion idempotent under
// concurrent callbacks.
func (r *jobRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, resultID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("id = ? AND status NOT IN ?", id, types.JobTerminalStatuses).
		Updates(map[string]interface{}{
			"status":       types.JobStatusCompleted,
			"result_id":    resultID,
			"progress":     100,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errorCode, errorMessage string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("id = ? AND status NOT IN ?", id, types.JobTerminalStatuses).
		Updates(map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error_code":    errorCode,
			"error_message": errorMessage,
			"completed_at":  now,
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasJobForResult reports whether the user ever ran a job that
// produced the given result. Gates access to the shared result cache.
func (r *jobRepo) HasJobForResult(ctx context.Context, tx *gorm.DB, userID, resultID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || resultID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("user_id = ? AND result_id = ?", userID, resultID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasRunnableForVideo reports whether the user already has a PENDING
// or PROCESSING job for the same (video, mode) pair.
func (r *jobRepo) HasRunnableForVideo(ctx context.Context, tx *gorm.DB, userID uuid.UUID, videoID, mode string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || videoID == "" {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.AnalysisJob{}).
		Where("user_id = ? AND video_id = ? AND mode = ? AND status IN ?",
			userID, videoID, mode, []string{types.JobStatusPending, types.JobStatusProcessing},
		).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
