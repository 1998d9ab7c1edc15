package notion

import (
	"time"

	"github.com/google/uuid"
)

// OAuthState is the durable CSRF state for the connect flow. Rows are
// consumed atomically on callback and expire after a few minutes.
type OAuthState struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StateHash string     `gorm:"column:state_hash;not null;uniqueIndex" json:"state_hash"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (OAuthState) TableName() string { return "notion_oauth_state" }
