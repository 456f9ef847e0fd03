package handlers

import (
	"strings"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCategoryRequest struct {
	Name             string `json:"name" validate:"required,min=2"`
	Description      string `json:"description"`
	ParentCategoryID string `json:"parent_category_id" validate:"omitempty,uuid4"`
}

type CreateBankQuestionRequest struct {
	CategoryID     string                `json:"category_id" validate:"omitempty,uuid4"`
	Title          string                `json:"title" validate:"required,min=3"`
	QuestionText   string                `json:"question_text" validate:"required"`
	QuestionType   string                `json:"question_type" validate:"required,oneof=mcq true_false short_answer essay"`
	Subject        string                `json:"subject"`
	Difficulty     string                `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Tags           string                `json:"tags"`
	SuggestedMarks float64               `json:"suggested_marks" validate:"required,gt=0"`
	ExpectedAnswer string                `json:"expected_answer"`
	MarkingScheme  string                `json:"marking_scheme"`
	Options        []QuestionOptionInput `json:"options" validate:"dive"`
}

func bankWriteAllowed(actor *models.Actor) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RoleAcademy
}

func ListCategories(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if !bankWriteAllowed(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var categories []models.QuestionBankCategory
	err = database.DB.Where("is_active = ?", true).Order("name").Find(&categories).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": categories, "count": len(categories)})
}

func CreateCategory(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if !bankWriteAllowed(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var parentID *uuid.UUID
	if req.ParentCategoryID != "" {
		id, err := uuid.Parse(req.ParentCategoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent_category_id"})
		}
		parentID = &id
	}

	var category *models.QuestionBankCategory
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		category, err = services.CreateCategory(tx, req.Name, req.Description, parentID, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func UpdateCategory(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if !bankWriteAllowed(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var category *models.QuestionBankCategory
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		category, err = services.UpdateCategory(tx, c.Params("id"), req.Name, req.Description, req.IsActive)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// ListBankQuestions browses the shared bank. Academies see only the
// approved, active pool; admins see everything.
func ListBankQuestions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if !bankWriteAllowed(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	query := database.DB.Model(&models.BankQuestion{}).Preload("Options")
	if actor.Role != models.RoleAdmin {
		query = query.Where("is_approved = ? AND is_active = ?", true, true)
	}

	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category_id"})
		}
		query = query.Where("category_id = ?", id)
	}
	if questionType := c.Query("question_type"); questionType != "" {
		query = query.Where("question_type = ?", questionType)
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(question_text) LIKE ? OR LOWER(tags) LIKE ?",
			pattern, pattern, pattern)
	}

	var questions []models.BankQuestion
	if err := query.Order("created_at DESC").Find(&questions).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": questions, "count": len(questions)})
}

func CreateBankQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if !bankWriteAllowed(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req CreateBankQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.BankQuestionInput{
		Title:          req.Title,
		QuestionText:   req.QuestionText,
		QuestionType:   req.QuestionType,
		Subject:        req.Subject,
		Difficulty:     req.Difficulty,
		Tags:           req.Tags,
		SuggestedMarks: req.SuggestedMarks,
		ExpectedAnswer: req.ExpectedAnswer,
		MarkingScheme:  req.MarkingScheme,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category_id"})
		}
		input.CategoryID = &id
	}
	for _, opt := range req.Options {
		input.Options = append(input.Options, services.OptionInput{
			OptionText:  opt.OptionText,
			IsCorrect:   opt.IsCorrect,
			OptionOrder: opt.OptionOrder,
			Explanation: opt.Explanation,
		})
	}

	var question *models.BankQuestion
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		question, err = services.CreateBankQuestion(tx, input, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// ApproveBankQuestion releases a bank question for copying into exams.
// Admin only.
func ApproveBankQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if actor.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var question *models.BankQuestion
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		question, err = services.ApproveBankQuestion(tx, c.Params("id"), actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(question)
}

func DeactivateBankQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if actor.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var question *models.BankQuestion
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		question, err = services.DeactivateBankQuestion(tx, c.Params("id"))
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(question)
}
