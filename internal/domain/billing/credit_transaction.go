package billing

import (
	"time"

	"github.com/google/uuid"
)

const (
	TxTypeCharge = "CHARGE"
	TxTypeUse    = "USE"
	TxTypeRefund = "REFUND"
	TxTypeExpire = "EXPIRE"
	TxTypeBonus  = "BONUS"
	TxTypeReward = "REWARD"
)

// CreditTransaction is an append-only audit row. BalanceAfter on the
// newest row for a user always equals the profile's current balance;
// both are written in the same database transaction.
type CreditTransaction struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        int        `gorm:"not null" json:"amount"`
	Type          string     `gorm:"not null;index" json:"type"`
	Description   string     `gorm:"column:description" json:"description,omitempty"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;column:reference_id;index" json:"reference_id,omitempty"`
	ReferenceType string     `gorm:"column:reference_type" json:"reference_type,omitempty"`
	BalanceAfter  int        `gorm:"column:balance_after;not null" json:"balance_after"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
}

func (CreditTransaction) TableName() string { return "credit_transaction" }
