package models

import (
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

// Session lifecycle. in_progress is the only non-terminal state; every
// other status permanently closes the attempt.
const (
	SessionStatusInProgress  = "in_progress"
	SessionStatusSubmitted   = "submitted"
	SessionStatusTimeout     = "timeout"
	SessionStatusInterrupted = "interrupted"
)

// ExamSession is one student's timed attempt at one online exam. At most
// one session exists per (exam, student); the unique index is the arbiter
// when two starts race.
type ExamSession struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SessionID    string    `gorm:"size:50;not null;unique" json:"session_id"`
	ExamID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_exam_student" json:"exam_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_exam_student" json:"student_id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null" json:"enrollment_id"`

	Status         string     `gorm:"size:15;not null;default:'in_progress'" json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`

	TimeSpentMinutes    int  `gorm:"default:0" json:"time_spent_minutes"`
	IsTimeExtended      bool `gorm:"default:false" json:"is_time_extended"`
	ExtendedTimeMinutes int  `gorm:"default:0" json:"extended_time_minutes"`

	IPAddress string `gorm:"size:45" json:"-"`
	UserAgent string `gorm:"type:text" json:"-"`

	Exam    Exam    `gorm:"foreignkey:ExamID;references:ID" json:"-"`
	Student Student `gorm:"foreignkey:StudentID" json:"-"`

	Answers []StudentAnswer `gorm:"foreignkey:SessionID;references:ID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewExamSession opens an attempt in its initial state with identifiers
// and timestamps assigned.
func NewExamSession(examID, studentID, enrollmentID uuid.UUID) ExamSession {
	now := time.Now()
	return ExamSession{
		ID:             uuid.New(),
		SessionID:      utils.GenerateSessionID(),
		ExamID:         examID,
		StudentID:      studentID,
		EnrollmentID:   enrollmentID,
		Status:         SessionStatusInProgress,
		StartedAt:      now,
		LastActivityAt: now,
	}
}

func (s *ExamSession) IsInProgress() bool {
	return s.Status == SessionStatusInProgress
}

func (s *ExamSession) IsTerminal() bool {
	return s.Status != SessionStatusInProgress
}

// TotalAllowedMinutes is the exam duration plus any granted extension.
// Requires s.Exam to be loaded.
func (s *ExamSession) TotalAllowedMinutes() int {
	return s.Exam.DurationMinutes + s.ExtendedTimeMinutes
}

// RemainingMinutes is zero for any closed session, never negative.
func (s *ExamSession) RemainingMinutes() int {
	if s.Status != SessionStatusInProgress {
		return 0
	}
	remaining := s.TotalAllowedMinutes() - s.TimeSpentMinutes
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsTimeout derives purely from the minute counters; it does not consult
// wall-clock time.
func (s *ExamSession) IsTimeout() bool {
	return s.TimeSpentMinutes >= s.TotalAllowedMinutes()
}
