package models

import (
	"strings"
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

// StudentAnswer records one response per (session, question). Objective
// answers carry a selected option and are scored on save; subjective
// answers carry text and wait for a grader.
type StudentAnswer struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AnswerID   string    `gorm:"size:40;unique" json:"answer_id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_session_question" json:"session_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_session_question" json:"question_id"`

	SelectedOptionID *uuid.UUID `gorm:"type:uuid" json:"selected_option_id"`
	TextAnswer       string     `gorm:"type:text" json:"text_answer"`

	AnsweredAt time.Time `json:"answered_at"`

	IsCorrect    *bool    `json:"is_correct"`
	AwardedMarks *float64 `gorm:"type:numeric(5,2)" json:"awarded_marks"`

	IsGraded      bool       `gorm:"default:false" json:"is_graded"`
	GradedByID    *uuid.UUID `gorm:"type:uuid" json:"graded_by_id"`
	GradedAt      *time.Time `json:"graded_at"`
	GraderRemarks string     `gorm:"type:text" json:"grader_remarks"`

	Session        ExamSession     `gorm:"foreignkey:SessionID;references:ID" json:"-"`
	Question       Question        `gorm:"foreignkey:QuestionID;references:ID" json:"-"`
	SelectedOption *QuestionOption `gorm:"foreignkey:SelectedOptionID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewStudentAnswer(sessionID, questionID uuid.UUID) StudentAnswer {
	return StudentAnswer{
		ID:         uuid.New(),
		AnswerID:   utils.GenerateAnswerID(),
		SessionID:  sessionID,
		QuestionID: questionID,
		AnsweredAt: time.Now(),
	}
}

// HasResponse reports whether the answer carries any content, which is
// what "attempted" means for result counting.
func (a *StudentAnswer) HasResponse() bool {
	return a.SelectedOptionID != nil || strings.TrimSpace(a.TextAnswer) != ""
}
