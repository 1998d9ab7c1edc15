package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	billingrepo "github.com/vidgist/vidgist-backend/internal/data/repos/billing"
	"github.com/vidgist/vidgist-backend/internal/data/repos/testutil"
	userrepo "github.com/vidgist/vidgist-backend/internal/data/repos/user"
	types "github.com/vidgist/vidgist-backend/internal/domain"
)

type creditFixture struct {
	svc    CreditService
	ledger billingrepo.CreditLedgerRepo
	tx     *gorm.DB
}

func newCreditFixture(t *testing.T) *creditFixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	profiles := userrepo.NewProfileRepo(tx, log)
	ledger := billingrepo.NewCreditLedgerRepo(tx, log)
	svc := NewCreditService(tx, profiles, ledger, log)
	return &creditFixture{svc: svc, ledger: ledger, tx: tx}
}

func TestCreditServiceBalanceAndTransactions(t *testing.T) {
	ctx := context.Background()
	f := newCreditFixture(t)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 100)

	balance, err := f.svc.GetBalance(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Credits != 100 || balance.Plan != types.PlanPro {
		t.Fatalf("balance = %+v", balance)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.ledger.Deduct(ctx, nil, profile.ID, 1, "analysis", nil, ""); err != nil {
			t.Fatalf("Deduct #%d: %v", i+1, err)
		}
	}

	page, err := f.svc.ListTransactions(ctx, profile.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(page.Transactions) != 2 || page.Total != 3 {
		t.Fatalf("page = %+v", page)
	}
	rest, err := f.svc.ListTransactions(ctx, profile.ID, 2, 2)
	if err != nil || len(rest.Transactions) != 1 {
		t.Fatalf("offset page = %+v err=%v", rest, err)
	}
}

func TestGrantMonthlyCredits(t *testing.T) {
	ctx := context.Background()
	f := newCreditFixture(t)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 50)

	entry, err := f.svc.GrantMonthlyCredits(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GrantMonthlyCredits: %v", err)
	}
	// PRO tops up by 600 per month.
	if entry.Type != types.TxTypeCharge || entry.Amount != 600 {
		t.Fatalf("grant entry = %+v", entry)
	}
	if entry.BalanceAfter != 650 {
		t.Fatalf("balance_after = %d, want 650", entry.BalanceAfter)
	}
	if got, _ := f.ledger.GetBalance(ctx, nil, profile.ID); got != 650 {
		t.Fatalf("balance = %d, want 650", got)
	}
}
