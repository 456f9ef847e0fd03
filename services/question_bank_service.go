package services

import (
	"errors"
	"strings"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BankQuestionInput struct {
	CategoryID     *uuid.UUID
	Title          string
	QuestionText   string
	QuestionType   string
	Subject        string
	Difficulty     string
	Tags           string
	SuggestedMarks float64
	ExpectedAnswer string
	MarkingScheme  string
	Options        []OptionInput
}

// CreateCategory adds a question-bank category. Names are unique.
func CreateCategory(tx *gorm.DB, name, description string, parentCategoryID *uuid.UUID, createdBy *models.User) (*models.QuestionBankCategory, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidAnswer("category name is required")
	}

	if parentCategoryID != nil {
		var parent models.QuestionBankCategory
		err := tx.Where("id = ? AND is_active = ?", *parentCategoryID, true).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("parent category not found")
		}
		if err != nil {
			return nil, err
		}
	}

	category := models.NewQuestionBankCategory(name)
	category.Description = description
	category.ParentCategoryID = parentCategoryID
	if createdBy != nil {
		category.CreatedByID = &createdBy.ID
	}

	if err := tx.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("category %s already exists", name)
		}
		return nil, err
	}
	return &category, nil
}

// UpdateCategory renames or re-describes a category. Nil fields are left
// unchanged.
func UpdateCategory(tx *gorm.DB, categoryID string, name, description *string, isActive *bool) (*models.QuestionBankCategory, error) {
	var category models.QuestionBankCategory
	err := tx.Where("category_id = ?", categoryID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("category %s not found", categoryID)
	}
	if err != nil {
		return nil, err
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, apperrors.InvalidAnswer("category name is required")
		}
		category.Name = *name
	}
	if description != nil {
		category.Description = *description
	}
	if isActive != nil {
		category.IsActive = *isActive
	}

	if err := tx.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("category %s already exists", category.Name)
		}
		return nil, err
	}
	return &category, nil
}

// CreateBankQuestion adds a reusable question. It starts unapproved and
// cannot be copied into exams until approved.
func CreateBankQuestion(tx *gorm.DB, in BankQuestionInput, createdBy *models.User) (*models.BankQuestion, error) {
	if !models.IsObjectiveType(in.QuestionType) && !models.IsSubjectiveType(in.QuestionType) {
		return nil, apperrors.InvalidAnswer("unknown question type %s", in.QuestionType)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.QuestionText) == "" {
		return nil, apperrors.InvalidAnswer("title and question text are required")
	}
	if in.SuggestedMarks <= 0 {
		return nil, apperrors.InvalidAnswer("suggested marks must be positive")
	}
	if models.IsSubjectiveType(in.QuestionType) && len(in.Options) > 0 {
		return nil, apperrors.InvalidAnswer("options can only be added to mcq or true/false questions")
	}

	if in.CategoryID != nil {
		var category models.QuestionBankCategory
		err := tx.Where("id = ? AND is_active = ?", *in.CategoryID, true).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category not found")
		}
		if err != nil {
			return nil, err
		}
	}

	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyMedium
	}

	question := models.NewBankQuestion()
	question.CategoryID = in.CategoryID
	question.Title = in.Title
	question.QuestionText = in.QuestionText
	question.QuestionType = in.QuestionType
	question.Subject = in.Subject
	question.Difficulty = in.Difficulty
	question.Tags = in.Tags
	question.SuggestedMarks = in.SuggestedMarks
	question.ExpectedAnswer = in.ExpectedAnswer
	question.MarkingScheme = in.MarkingScheme
	if createdBy != nil {
		question.CreatedByID = &createdBy.ID
	}

	for _, opt := range in.Options {
		question.Options = append(question.Options, models.BankQuestionOption{
			ID:             uuid.New(),
			BankQuestionID: question.ID,
			OptionText:     opt.OptionText,
			IsCorrect:      opt.IsCorrect,
			OptionOrder:    opt.OptionOrder,
			Explanation:    opt.Explanation,
		})
	}

	if err := tx.Create(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("an option order repeats within this question")
		}
		return nil, err
	}
	return &question, nil
}

// ApproveBankQuestion marks a bank question as usable in exams.
func ApproveBankQuestion(tx *gorm.DB, bankQuestionID string, approver *models.User) (*models.BankQuestion, error) {
	var question models.BankQuestion
	err := tx.Where("bank_question_id = ?", bankQuestionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("bank question %s not found", bankQuestionID)
	}
	if err != nil {
		return nil, err
	}

	if question.IsApproved {
		return &question, nil
	}

	now := time.Now()
	question.IsApproved = true
	question.ApprovedByID = &approver.ID
	question.ApprovedAt = &now

	if err := tx.Save(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// DeactivateBankQuestion retires a bank question from future use.
// Existing exam questions copied from it are unaffected.
func DeactivateBankQuestion(tx *gorm.DB, bankQuestionID string) (*models.BankQuestion, error) {
	var question models.BankQuestion
	err := tx.Where("bank_question_id = ?", bankQuestionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("bank question %s not found", bankQuestionID)
	}
	if err != nil {
		return nil, err
	}

	question.IsActive = false
	if err := tx.Save(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}
