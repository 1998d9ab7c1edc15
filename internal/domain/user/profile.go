package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree     = "FREE"
	PlanLight    = "LIGHT"
	PlanPro      = "PRO"
	PlanBusiness = "BUSINESS"
)

type Profile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Name      string         `gorm:"column:name" json:"name,omitempty"`
	AvatarURL string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Role      string         `gorm:"not null" json:"role"`
	Plan      string         `gorm:"not null;index" json:"plan"`
	Credits   int            `gorm:"not null" json:"credits"`
	Language  string         `gorm:"column:language" json:"language,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "profile" }
