package notion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type OAuthStateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, state *types.NotionOAuthState) (*types.NotionOAuthState, error)
	Consume(ctx context.Context, tx *gorm.DB, stateHash string) (*types.NotionOAuthState, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type oauthStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthStateRepo(db *gorm.DB, baseLog *logger.Logger) OAuthStateRepo {
	return &oauthStateRepo{
		db:  db,
		log: baseLog.With("repo", "OAuthStateRepo"),
	}
}

func (r *oauthStateRepo) Create(ctx context.Context, tx *gorm.DB, state *types.NotionOAuthState) (*types.NotionOAuthState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

// Consume marks the state used in a single guarded update: only an
// unexpired, unused row wins. Returns nil when the state is unknown,
// expired, or already spent.
func (r *oauthStateRepo) Consume(ctx context.Context, tx *gorm.DB, stateHash string) (*types.NotionOAuthState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if stateHash == "" {
		return nil, nil
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.NotionOAuthState{}).
		Where("state_hash = ? AND used_at IS NULL AND expires_at > ?", stateHash, now).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var state types.NotionOAuthState
	if err := transaction.WithContext(ctx).
		Where("state_hash = ?", stateHash).
		First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *oauthStateRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&types.NotionOAuthState{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
