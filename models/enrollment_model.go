package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchEnrollment links a student to a batch. An active enrollment is the
// eligibility ticket for sitting that batch's exams.
type BatchEnrollment struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	StudentID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_batch" json:"student_id"`
	BatchID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_batch" json:"batch_id"`
	EnrollmentDate       time.Time  `json:"enrollment_date"`
	CompletionDate       *time.Time `json:"completion_date"`
	IsActive             bool       `gorm:"default:true" json:"is_active"`
	AttendancePercentage float64    `gorm:"type:numeric(5,2);default:0.00" json:"attendance_percentage"`
	FinalGradeID         *uuid.UUID `gorm:"type:uuid" json:"final_grade_id"`
	Remarks              string     `gorm:"type:text" json:"remarks"`

	Student    Student `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Batch      Batch   `gorm:"foreignkey:BatchID" json:"-"`
	FinalGrade *Grade  `gorm:"foreignkey:FinalGradeID" json:"final_grade,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
