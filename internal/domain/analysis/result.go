package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Result is the durable, deduplicated output of a successful
// analysis. The (video_id, mode) pair is the idempotency key across
// all users; re-analysis overwrites payload fields but keeps the row
// identity.
type Result struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID              string         `gorm:"column:video_id;not null;uniqueIndex:idx_analysis_result_video_mode" json:"video_id"`
	Mode                 string         `gorm:"not null;uniqueIndex:idx_analysis_result_video_mode" json:"mode"`
	VideoURL             string         `gorm:"column:video_url;not null" json:"video_url"`
	VideoTitle           string         `gorm:"column:video_title" json:"video_title,omitempty"`
	VideoThumbnail       string         `gorm:"column:video_thumbnail" json:"video_thumbnail,omitempty"`
	VideoDurationSeconds *int           `gorm:"column:video_duration_seconds" json:"video_duration_seconds,omitempty"`
	ResultJSON           datatypes.JSON `gorm:"column:result_json;type:jsonb" json:"result_json"`
	Transcript           string         `gorm:"column:transcript;type:text" json:"transcript,omitempty"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

func (Result) TableName() string { return "analysis_result" }
