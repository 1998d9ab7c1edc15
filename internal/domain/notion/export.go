package notion

import (
	"time"

	"github.com/google/uuid"
)

// Export binds one (user, result) pair to exactly one Notion page.
// SyncVersion increases by exactly 1 per successful sync; a write
// against a stale version is rejected, never silently applied.
type Export struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_notion_export_user_result" json:"user_id"`
	ResultID     uuid.UUID  `gorm:"type:uuid;column:result_id;not null;uniqueIndex:idx_notion_export_user_result" json:"result_id"`
	PageID       string     `gorm:"column:page_id;not null" json:"page_id"`
	PageURL      string     `gorm:"column:page_url" json:"page_url,omitempty"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`
	SyncVersion  int        `gorm:"column:sync_version;not null" json:"sync_version"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Export) TableName() string { return "notion_export" }
