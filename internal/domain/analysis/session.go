package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session groups analyses from one conversation and anchors the
// session-scoped Notion page binding: one page accumulates every
// result exported within the session.
type Session struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string         `gorm:"column:title" json:"title,omitempty"`
	NotionPageID  string         `gorm:"column:notion_page_id" json:"notion_page_id,omitempty"`
	NotionPageURL string         `gorm:"column:notion_page_url" json:"notion_page_url,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Session) TableName() string { return "chat_session" }
