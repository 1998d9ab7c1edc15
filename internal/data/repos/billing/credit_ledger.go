package billing

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

// CreditLedgerRepo owns every balance mutation. The profile balance
// and the audit row are always written in the same transaction, so
// the newest transaction's balance_after equals the stored balance.
type CreditLedgerRepo interface {
	Deduct(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error)
	Refund(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error)
	Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, txType string, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error)
	GetBalance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.CreditTransaction, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type creditLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreditLedgerRepo(db *gorm.DB, baseLog *logger.Logger) CreditLedgerRepo {
	return &creditLedgerRepo{
		db:  db,
		log: baseLog.With("repo", "CreditLedgerRepo"),
	}
}

// Deduct atomically subtracts amount from the balance, guarded by
// credits >= amount. Returns ErrCreditsInsufficient when the guard
// loses, so concurrent deducts can never drive the balance negative.
func (r *creditLedgerRepo) Deduct(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if amount <= 0 {
		return nil, errors.New("deduct amount must be positive")
	}

	var entry *types.CreditTransaction
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Model(&types.Profile{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Updates(map[string]interface{}{
				"credits":    gorm.Expr("credits - ?", amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := txx.Model(&types.Profile{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperr.ErrNotFound
			}
			return apperr.ErrCreditsInsufficient
		}

		balance, err := r.readBalance(txx, userID)
		if err != nil {
			return err
		}
		entry = &types.CreditTransaction{
			ID:            uuid.New(),
			UserID:        userID,
			Amount:        -amount,
			Type:          types.TxTypeUse,
			Description:   description,
			ReferenceID:   referenceID,
			ReferenceType: referenceType,
			BalanceAfter:  balance,
			CreatedAt:     time.Now(),
		}
		return txx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Refund is idempotent per reference: a second refund for the same
// reference_id returns the original entry without touching the
// balance.
func (r *creditLedgerRepo) Refund(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if amount <= 0 {
		return nil, errors.New("refund amount must be positive")
	}

	var entry *types.CreditTransaction
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if referenceID != nil && *referenceID != uuid.Nil {
			var existing types.CreditTransaction
			err := txx.
				Where("user_id = ? AND reference_id = ? AND type = ?", userID, *referenceID, types.TxTypeRefund).
				Limit(1).
				Find(&existing).Error
			if err != nil {
				return err
			}
			if existing.ID != uuid.Nil {
				entry = &existing
				return nil
			}
		}

		res := txx.Model(&types.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"credits":    gorm.Expr("credits + ?", amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		balance, err := r.readBalance(txx, userID)
		if err != nil {
			return err
		}
		entry = &types.CreditTransaction{
			ID:            uuid.New(),
			UserID:        userID,
			Amount:        amount,
			Type:          types.TxTypeRefund,
			Description:   description,
			ReferenceID:   referenceID,
			ReferenceType: referenceType,
			BalanceAfter:  balance,
			CreatedAt:     time.Now(),
		}
		return txx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Grant credits the balance for CHARGE, BONUS and REWARD entries.
func (r *creditLedgerRepo) Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, txType string, description string, referenceID *uuid.UUID, referenceType string) (*types.CreditTransaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if amount <= 0 {
		return nil, errors.New("grant amount must be positive")
	}

	var entry *types.CreditTransaction
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Model(&types.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"credits":    gorm.Expr("credits + ?", amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		balance, err := r.readBalance(txx, userID)
		if err != nil {
			return err
		}
		entry = &types.CreditTransaction{
			ID:            uuid.New(),
			UserID:        userID,
			Amount:        amount,
			Type:          txType,
			Description:   description,
			ReferenceID:   referenceID,
			ReferenceType: referenceType,
			BalanceAfter:  balance,
			CreatedAt:     time.Now(),
		}
		return txx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *creditLedgerRepo) GetBalance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return r.readBalance(transaction.WithContext(ctx), userID)
}

func (r *creditLedgerRepo) readBalance(tx *gorm.DB, userID uuid.UUID) (int, error) {
	var profile types.Profile
	err := tx.Where("id = ?", userID).Limit(1).Find(&profile).Error
	if err != nil {
		return 0, err
	}
	if profile.ID == uuid.Nil {
		return 0, apperr.ErrNotFound
	}
	return profile.Credits, nil
}

func (r *creditLedgerRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.CreditTransaction, error) {
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
	var out []*types.CreditTransaction
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

func (r *creditLedgerRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
