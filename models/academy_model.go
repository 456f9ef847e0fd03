package models

import (
	"time"

	"github.com/google/uuid"
)

type Academy struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;unique" json:"user_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Address       string    `gorm:"type:text" json:"address"`
	ContactNumber string    `gorm:"size:20" json:"contact_number"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Course struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AcademyID uuid.UUID `gorm:"type:uuid;not null" json:"academy_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:50" json:"code"`
	Subject   string    `gorm:"size:50" json:"subject"`
	Fee       float64   `gorm:"type:numeric(10,2);default:0.00" json:"fee"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	Academy Academy `gorm:"foreignkey:AcademyID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Batch struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CourseID  uuid.UUID  `gorm:"type:uuid;not null" json:"course_id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Capacity  int        `gorm:"default:0" json:"capacity"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	Course Course `gorm:"foreignkey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
