package user

import (
	"time"

	"github.com/google/uuid"
)

// DailyUsage counts billable analyses per user per UTC day. Cache
// hits are not counted.
type DailyUsage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_usage_user_date" json:"user_id"`
	Date           time.Time `gorm:"not null;uniqueIndex:idx_daily_usage_user_date" json:"date"`
	StandardCount  int       `gorm:"column:standard_count;not null" json:"standard_count"`
	DeepCount      int       `gorm:"column:deep_count;not null" json:"deep_count"`
	ChatMessages   int       `gorm:"column:chat_messages;not null" json:"chat_messages"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyUsage) TableName() string { return "daily_usage" }
