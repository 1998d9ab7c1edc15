package notion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type ExportRepo interface {
	GetByUserAndResult(ctx context.Context, tx *gorm.DB, userID, resultID uuid.UUID) (*types.NotionExport, error)
	Upsert(ctx context.Context, tx *gorm.DB, export *types.NotionExport) (*types.NotionExport, error)
	BumpSyncVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int) (bool, error)
}

type exportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExportRepo(db *gorm.DB, baseLog *logger.Logger) ExportRepo {
	return &exportRepo{
		db:  db,
		log: baseLog.With("repo", "ExportRepo"),
	}
}

func (r *exportRepo) GetByUserAndResult(ctx context.Context, tx *gorm.DB, userID, resultID uuid.UUID) (*types.NotionExport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var export types.NotionExport
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND result_id = ?", userID, resultID).
		Limit(1).
		Find(&export).Error
	if err != nil {
		return nil, err
	}
	if export.ID == uuid.Nil {
		return nil, nil
	}
	return &export, nil
}

// Upsert keys on (user_id, result_id): re-exporting the same result
// rebinds the existing row to the new page instead of creating a
// second binding.
func (r *exportRepo) Upsert(ctx context.Context, tx *gorm.DB, export *types.NotionExport) (*types.NotionExport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "result_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"page_id",
				"page_url",
				"last_synced_at",
				"sync_version",
				"updated_at",
			}),
		}).
		Create(export).Error
	if err != nil {
		return nil, err
	}

	var persisted types.NotionExport
	err = transaction.WithContext(ctx).
		Where("user_id = ? AND result_id = ?", export.UserID, export.ResultID).
		First(&persisted).Error
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}

// BumpSyncVersion advances sync_version by exactly 1, guarded by the
// expected current version. Returns false when another sync got there
// first; the caller must surface a conflict, never retry silently.
func (r *exportRepo) BumpSyncVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.NotionExport{}).
		Where("id = ? AND sync_version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"sync_version":   expectedVersion + 1,
			"last_synced_at": now,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
