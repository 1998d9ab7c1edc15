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

type IntegrationRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.NotionIntegration, error)
	Upsert(ctx context.Context, tx *gorm.DB, integration *types.NotionIntegration) (*types.NotionIntegration, error)
	DeleteWithExports(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type integrationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntegrationRepo(db *gorm.DB, baseLog *logger.Logger) IntegrationRepo {
	return &integrationRepo{
		db:  db,
		log: baseLog.With("repo", "IntegrationRepo"),
	}
}

func (r *integrationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.NotionIntegration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var integration types.NotionIntegration
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&integration).Error
	if err != nil {
		return nil, err
	}
	if integration.ID == uuid.Nil {
		return nil, nil
	}
	return &integration, nil
}

// Upsert replaces the user's connection on reconnect, keyed on
// user_id. A fresh OAuth grant always wins over the stored token.
func (r *integrationRepo) Upsert(ctx context.Context, tx *gorm.DB, integration *types.NotionIntegration) (*types.NotionIntegration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"encrypted_token",
				"token_iv",
				"workspace_id",
				"workspace_name",
				"workspace_icon",
				"bot_id",
				"updated_at",
			}),
		}).
		Create(integration).Error
	if err != nil {
		return nil, err
	}

	var persisted types.NotionIntegration
	err = transaction.WithContext(ctx).
		Where("user_id = ?", integration.UserID).
		First(&persisted).Error
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}

// DeleteWithExports removes the connection and every export binding
// in one transaction. Exported pages themselves are left alone.
func (r *integrationRepo) DeleteWithExports(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("user_id = ?", userID).Delete(&types.NotionExport{}).Error; err != nil {
			return err
		}
		if err := txx.Where("user_id = ?", userID).Delete(&types.NotionIntegration{}).Error; err != nil {
			return err
		}
		return txx.Model(&types.ChatSession{}).
			Where("user_id = ? AND notion_page_id <> ''", userID).
			Updates(map[string]interface{}{
				"notion_page_id":  "",
				"notion_page_url": "",
				"updated_at":      time.Now(),
			}).Error
	})
}
