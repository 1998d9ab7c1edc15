package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	billingrepo "github.com/vidgist/vidgist-backend/internal/data/repos/billing"
	userrepo "github.com/vidgist/vidgist-backend/internal/data/repos/user"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

// Balance is the credits summary returned to clients.
type Balance struct {
	Credits int    `json:"credits"`
	Plan    string `json:"plan"`
}

type TransactionPage struct {
	Transactions []*types.CreditTransaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
}

type CreditService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) (*TransactionPage, error)
	GrantMonthlyCredits(ctx context.Context, userID uuid.UUID) (*types.CreditTransaction, error)
}

type creditService struct {
	db       *gorm.DB
	profiles userrepo.ProfileRepo
	ledger   billingrepo.CreditLedgerRepo
	log      *logger.Logger
}

func NewCreditService(db *gorm.DB, profiles userrepo.ProfileRepo, ledger billingrepo.CreditLedgerRepo, baseLog *logger.Logger) CreditService {
	return &creditService{
		db:       db,
		profiles: profiles,
		ledger:   ledger,
		log:      baseLog.With("service", "CreditService"),
	}
}

func (s *creditService) GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	profile, err := s.profiles.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{Credits: profile.Credits, Plan: profile.Plan}, nil
}

func (s *creditService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) (*TransactionPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.ledger.ListByUser(ctx, nil, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.ledger.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{
		Transactions: entries,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// GrantMonthlyCredits tops up the balance with the plan's monthly
// allowance as a CHARGE entry.
func (s *creditService) GrantMonthlyCredits(ctx context.Context, userID uuid.UUID) (*types.CreditTransaction, error) {
	profile, err := s.profiles.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	limits := types.LimitsForPlan(profile.Plan)
	entry, err := s.ledger.Grant(ctx, nil, userID, limits.MonthlyCredits, types.TxTypeCharge, "monthly plan credits", nil, "")
	if err != nil {
		s.log.Error("monthly credit grant failed", "user_id", userID, "error", err)
		return nil, err
	}
	return entry, nil
}
