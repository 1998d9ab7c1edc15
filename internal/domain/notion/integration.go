package notion

import (
	"time"

	"github.com/google/uuid"
)

// Integration holds one user's Notion workspace connection. The
// access token is stored encrypted (AES-256-GCM) with its IV.
type Integration struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EncryptedToken string    `gorm:"column:encrypted_token;not null" json:"-"`
	TokenIV        string    `gorm:"column:token_iv;not null" json:"-"`
	WorkspaceID    string    `gorm:"column:workspace_id" json:"workspace_id,omitempty"`
	WorkspaceName  string    `gorm:"column:workspace_name" json:"workspace_name,omitempty"`
	WorkspaceIcon  string    `gorm:"column:workspace_icon" json:"workspace_icon,omitempty"`
	BotID          string    `gorm:"column:bot_id" json:"bot_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Integration) TableName() string { return "notion_integration" }
