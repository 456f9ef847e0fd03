package models

import (
	"time"

	"github.com/classmatebd/classmate_backend/utils"
	"github.com/google/uuid"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type QuestionBankCategory struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CategoryID       string     `gorm:"size:20;unique" json:"category_id"`
	Name             string     `gorm:"size:100;not null;unique" json:"name"`
	Description      string     `gorm:"type:text" json:"description"`
	ParentCategoryID *uuid.UUID `gorm:"type:uuid" json:"parent_category_id"`
	CreatedByID      *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewQuestionBankCategory(name string) QuestionBankCategory {
	return QuestionBankCategory{ID: uuid.New(), CategoryID: utils.GenerateCategoryID(), Name: name, IsActive: true}
}

// BankQuestion is a reusable question definition. Exams never reference it
// live; copying into an exam snapshots the text and options.
type BankQuestion struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BankQuestionID string     `gorm:"size:40;unique" json:"bank_question_id"`
	CategoryID     *uuid.UUID `gorm:"type:uuid" json:"category_id"`

	Title          string  `gorm:"size:255;not null" json:"title"`
	QuestionText   string  `gorm:"type:text;not null" json:"question_text"`
	QuestionType   string  `gorm:"size:20;not null;default:'mcq'" json:"question_type"`
	Subject        string  `gorm:"size:50" json:"subject"`
	Difficulty     string  `gorm:"size:10;default:'medium'" json:"difficulty"`
	Tags           string  `gorm:"size:500" json:"tags"`
	SuggestedMarks float64 `gorm:"type:numeric(5,2);default:1.00" json:"suggested_marks"`

	ExpectedAnswer string `gorm:"type:text" json:"expected_answer"`
	MarkingScheme  string `gorm:"type:text" json:"marking_scheme"`

	UsageCount int        `gorm:"default:0" json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at"`

	IsApproved   bool       `gorm:"default:false" json:"is_approved"`
	ApprovedByID *uuid.UUID `gorm:"type:uuid" json:"approved_by_id"`
	ApprovedAt   *time.Time `json:"approved_at"`
	CreatedByID  *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`

	Options []BankQuestionOption `gorm:"foreignkey:BankQuestionID;references:ID;constraint:OnDelete:CASCADE" json:"options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBankQuestion() BankQuestion {
	return BankQuestion{ID: uuid.New(), BankQuestionID: utils.GenerateQuestionBankID(), IsActive: true}
}

type BankQuestionOption struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BankQuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bank_option_order" json:"bank_question_id"`
	OptionText     string    `gorm:"size:500;not null" json:"option_text"`
	IsCorrect      bool      `gorm:"default:false" json:"is_correct"`
	OptionOrder    int       `gorm:"not null;uniqueIndex:idx_bank_option_order" json:"option_order"`
	Explanation    string    `gorm:"type:text" json:"explanation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
