package models

import (
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

const (
	QuestionTypeMCQ         = "mcq"
	QuestionTypeTrueFalse   = "true_false"
	QuestionTypeShortAnswer = "short_answer"
	QuestionTypeEssay       = "essay"
)

// IsObjectiveType reports whether answers of this type are auto-gradable.
func IsObjectiveType(questionType string) bool {
	return questionType == QuestionTypeMCQ || questionType == QuestionTypeTrueFalse
}

// IsSubjectiveType reports whether answers of this type need a human grader.
func IsSubjectiveType(questionType string) bool {
	return questionType == QuestionTypeShortAnswer || questionType == QuestionTypeEssay
}

type Question struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuestionID string    `gorm:"size:40;unique" json:"question_id"`
	ExamID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_question_exam_order" json:"exam_id"`

	// BankQuestionID points back at the bank entry this question was copied
	// from. The copy is a snapshot; the reference is informational only.
	BankQuestionID *uuid.UUID `gorm:"type:uuid" json:"bank_question_id"`

	QuestionText   string  `gorm:"type:text;not null" json:"question_text"`
	QuestionType   string  `gorm:"size:20;not null;default:'mcq'" json:"question_type"`
	Marks          float64 `gorm:"type:numeric(5,2);not null" json:"marks"`
	QuestionOrder  int     `gorm:"not null;uniqueIndex:idx_question_exam_order" json:"question_order"`
	IsRequired     bool    `gorm:"default:true" json:"is_required"`
	ExpectedAnswer string  `gorm:"type:text" json:"-"`
	MarkingScheme  string  `gorm:"type:text" json:"-"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`

	Options []QuestionOption `gorm:"foreignkey:QuestionID;references:ID;constraint:OnDelete:CASCADE" json:"options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewQuestion(examID uuid.UUID) Question {
	return Question{ID: uuid.New(), QuestionID: utils.GenerateQuestionID(), ExamID: examID, IsRequired: true}
}

func (q *Question) IsObjective() bool {
	return IsObjectiveType(q.QuestionType)
}

func (q *Question) IsSubjective() bool {
	return IsSubjectiveType(q.QuestionType)
}

type QuestionOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_option_question_order" json:"question_id"`

	// BankOptionID mirrors BankQuestionID for options copied from the bank.
	BankOptionID *uuid.UUID `gorm:"type:uuid" json:"-"`

	OptionText  string `gorm:"size:500;not null" json:"option_text"`
	IsCorrect   bool   `gorm:"default:false" json:"-"`
	OptionOrder int    `gorm:"not null;uniqueIndex:idx_option_question_order" json:"option_order"`
	Explanation string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
