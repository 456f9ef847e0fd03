package models

import (
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;unique" json:"user_id"`
	SchoolName    string     `gorm:"size:255" json:"school_name"`
	GuardianName  string     `gorm:"size:255" json:"guardian_name"`
	GuardianPhone string     `gorm:"size:20" json:"guardian_phone"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Address       string     `gorm:"type:text" json:"address"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
