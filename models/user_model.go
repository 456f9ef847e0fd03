package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles drive every permission decision. Dispatch happens in one place
// per operation via a switch on the resolved role, never through
// scattered boolean checks.
const (
	RoleAdmin   = "admin"
	RoleAcademy = "academy"
	RoleStudent = "student"
	RoleOther   = "other"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MobileNumber string    `gorm:"size:20;not null;unique" json:"mobile_number"`
	Email        *string   `gorm:"size:255" json:"email"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	Password     string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'student'" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
