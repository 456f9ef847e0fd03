package models

import (
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

const (
	ExamTypePaperBased = "paper_based"
	ExamTypeOnline     = "online"
)

type Exam struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExamID          string    `gorm:"size:40;unique" json:"exam_id"`
	BatchID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exam_batch_title" json:"batch_id"`
	Subject         string    `gorm:"size:50;not null" json:"subject"`
	Title           string    `gorm:"size:255;not null;uniqueIndex:idx_exam_batch_title" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	ExamDate        time.Time `gorm:"not null" json:"exam_date"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	TotalMarks      float64   `gorm:"type:numeric(6,2);not null" json:"total_marks"`
	PassMarks       float64   `gorm:"type:numeric(6,2);not null" json:"pass_marks"`
	ExamType        string    `gorm:"size:20;not null;default:'paper_based'" json:"exam_type"`
	IsPublished     bool      `gorm:"default:false" json:"is_published"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	ResultsPublished  bool       `gorm:"default:false" json:"results_published"`
	ResultPublishedAt *time.Time `json:"result_published_at"`
	PublishedByID     *uuid.UUID `gorm:"type:uuid" json:"published_by_id"`

	// Notification bookkeeping, flipped by the reminder/publish flows.
	SMSSent               bool       `gorm:"default:false" json:"-"`
	SMSSentAt             *time.Time `json:"-"`
	AppNotificationSent   bool       `gorm:"default:false" json:"-"`
	AppNotificationSentAt *time.Time `json:"-"`

	Batch     Batch      `gorm:"foreignkey:BatchID" json:"-"`
	Questions []Question `gorm:"foreignkey:ExamID;references:ID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewExam builds an exam with its identifiers assigned. Validation of the
// date/marks invariants lives in the exam service.
func NewExam(batchID uuid.UUID) Exam {
	return Exam{ID: uuid.New(), ExamID: utils.GenerateExamID(), BatchID: batchID, IsActive: true}
}

func (e *Exam) IsOnline() bool {
	return e.ExamType == ExamTypeOnline
}

// IsCompleted reports whether the scheduled date has passed.
func (e *Exam) IsCompleted() bool {
	return time.Now().After(e.ExamDate)
}

func (e *Exam) CanPublishResults() bool {
	return e.IsCompleted() && !e.ResultsPublished
}
