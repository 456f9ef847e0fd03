package models

import (
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

// ExamResult is the scored outcome of one student's attempt at one exam,
// at most one row per (exam, student). Paper-based results are entered by
// staff; online results additionally reference their session 1:1 and split
// obtained marks into auto- and manually-graded portions.
//
// ObtainedMarks, IsPassed and GradeID are derived together from the two
// sub-totals; every write path goes through the result service's scoring
// step so the three never drift apart.
type ExamResult struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ResultID     string    `gorm:"size:40;unique" json:"result_id"`
	ExamID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_result_exam_student" json:"exam_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_result_exam_student" json:"student_id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null" json:"enrollment_id"`

	ObtainedMarks float64    `gorm:"type:numeric(6,2);default:0" json:"obtained_marks"`
	GradeID       *uuid.UUID `gorm:"type:uuid" json:"grade_id"`
	IsPassed      bool       `gorm:"default:false" json:"is_passed"`
	WasPresent    bool       `json:"was_present"`

	EnteredByID      *uuid.UUID `gorm:"type:uuid" json:"entered_by_id"`
	LastModifiedByID *uuid.UUID `gorm:"type:uuid" json:"last_modified_by_id"`
	Remarks          string     `gorm:"type:text" json:"remarks"`

	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	VerifiedByID *uuid.UUID `gorm:"type:uuid" json:"verified_by_id"`
	VerifiedAt   *time.Time `json:"verified_at"`

	// Online-attempt extension. SessionID set means this row was produced
	// by the result aggregator from a session.
	SessionID               *uuid.UUID `gorm:"type:uuid;unique" json:"session_id"`
	AutoGradedMarks         float64    `gorm:"type:numeric(6,2);default:0" json:"auto_graded_marks"`
	ManualGradedMarks       float64    `gorm:"type:numeric(6,2);default:0" json:"manual_graded_marks"`
	TotalQuestions          int        `gorm:"default:0" json:"total_questions"`
	TotalQuestionsAttempted int        `gorm:"default:0" json:"total_questions_attempted"`
	CorrectAnswers          int        `gorm:"default:0" json:"correct_answers"`
	WrongAnswers            int        `gorm:"default:0" json:"wrong_answers"`
	IsAutoProcessed         bool       `gorm:"default:false" json:"is_auto_processed"`
	IsManualGradingComplete bool       `gorm:"default:false" json:"is_manual_grading_complete"`

	Exam    Exam         `gorm:"foreignkey:ExamID;references:ID" json:"-"`
	Student Student      `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Grade   *Grade       `gorm:"foreignkey:GradeID" json:"grade,omitempty"`
	Session *ExamSession `gorm:"foreignkey:SessionID;references:ID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewExamResult(examID, studentID, enrollmentID uuid.UUID) ExamResult {
	return ExamResult{
		ID:           uuid.New(),
		ResultID:     utils.GenerateResultID(),
		ExamID:       examID,
		StudentID:    studentID,
		EnrollmentID: enrollmentID,
		WasPresent:   true,
	}
}

// IsOnline reports whether this row is the online-attempt variant.
func (r *ExamResult) IsOnline() bool {
	return r.SessionID != nil
}

// Percentage of totalMarks represented by ObtainedMarks.
func (r *ExamResult) Percentage(totalMarks float64) float64 {
	if totalMarks <= 0 {
		return 0
	}
	return r.ObtainedMarks / totalMarks * 100
}

// CompletionPercentage is how much of the exam the student attempted.
func (r *ExamResult) CompletionPercentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.TotalQuestionsAttempted) / float64(r.TotalQuestions) * 100
}
