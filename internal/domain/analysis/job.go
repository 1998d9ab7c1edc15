package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModeStandard = "STANDARD"
	ModeDeep     = "DEEP"
)

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// TerminalStatuses are the states no job ever leaves.
var TerminalStatuses = []string{StatusCompleted, StatusFailed}

func ValidMode(mode string) bool {
	return mode == ModeStandard || mode == ModeDeep
}

// Job is one billable (or cache-served) analysis request.
// CreditsReserved is fixed at creation; it is the exact amount
// refunded if and only if the job transitions to FAILED.
type Job struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID       *uuid.UUID     `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`
	VideoURL        string         `gorm:"column:video_url;not null" json:"video_url"`
	VideoID         string         `gorm:"column:video_id;not null;index" json:"video_id"`
	Mode            string         `gorm:"not null;index" json:"mode"`
	Status          string         `gorm:"not null;index" json:"status"`
	CreditsReserved int            `gorm:"column:credits_reserved;not null" json:"credits_reserved"`
	ResultID        *uuid.UUID     `gorm:"type:uuid;column:result_id;index" json:"result_id,omitempty"`
	ErrorCode       string         `gorm:"column:error_code" json:"error_code,omitempty"`
	ErrorMessage    string         `gorm:"column:error_message" json:"error_message,omitempty"`
	Progress        int            `gorm:"not null" json:"progress"`
	StartedAt       *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Job) TableName() string { return "analysis_job" }

func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
