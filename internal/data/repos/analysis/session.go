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

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatSession, error)
	BindNotionPage(ctx context.Context, tx *gorm.DB, id uuid.UUID, pageID, pageURL string) (bool, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.ChatSession
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// BindNotionPage records the session's page binding exactly once.
// Returns false when a page is already bound, so concurrent exports
// agree on a single page.
func (r *sessionRepo) BindNotionPage(ctx context.Context, tx *gorm.DB, id uuid.UUID, pageID, pageURL string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ChatSession{}).
		Where("id = ? AND (notion_page_id = '' OR notion_page_id IS NULL)", id).
		Updates(map[string]interface{}{
			"notion_page_id":  pageID,
			"notion_page_url": pageURL,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
