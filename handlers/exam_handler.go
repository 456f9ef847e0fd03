package handlers

import (
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/notifications"
	"github.com/classmatebd/classmate_backend/selectors"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateExamRequest struct {
	BatchID         string    `json:"batch_id" validate:"required,uuid4"`
	Subject         string    `json:"subject" validate:"required"`
	Title           string    `json:"title" validate:"required,min=3"`
	Description     string    `json:"description"`
	ExamDate        time.Time `json:"exam_date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	TotalMarks      float64   `json:"total_marks" validate:"required,gt=0"`
	PassMarks       float64   `json:"pass_marks" validate:"gte=0"`
	ExamType        string    `json:"exam_type" validate:"omitempty,oneof=paper_based online"`
}

type UpdateExamRequest struct {
	Subject         string    `json:"subject" validate:"required"`
	Title           string    `json:"title" validate:"required,min=3"`
	Description     string    `json:"description"`
	ExamDate        time.Time `json:"exam_date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	TotalMarks      float64   `json:"total_marks" validate:"required,gt=0"`
	PassMarks       float64   `json:"pass_marks" validate:"gte=0"`
	ExamType        string    `json:"exam_type" validate:"omitempty,oneof=paper_based online"`
}

type AddQuestionRequest struct {
	QuestionText   string                `json:"question_text" validate:"required"`
	QuestionType   string                `json:"question_type" validate:"required,oneof=mcq true_false short_answer essay"`
	Marks          float64               `json:"marks" validate:"required,gt=0"`
	QuestionOrder  int                   `json:"question_order" validate:"gte=0"`
	IsRequired     *bool                 `json:"is_required,omitempty"`
	ExpectedAnswer string                `json:"expected_answer"`
	MarkingScheme  string                `json:"marking_scheme"`
	Options        []QuestionOptionInput `json:"options" validate:"dive"`
}

type QuestionOptionInput struct {
	OptionText  string `json:"option_text" validate:"required"`
	IsCorrect   bool   `json:"is_correct"`
	OptionOrder int    `json:"option_order" validate:"required,gt=0"`
	Explanation string `json:"explanation"`
}

type CopyFromBankRequest struct {
	BankQuestionID string   `json:"bank_question_id" validate:"required"`
	Marks          *float64 `json:"marks,omitempty"`
	QuestionOrder  int      `json:"question_order" validate:"gte=0"`
}

// requireManagedExam loads the exam and checks the actor may mutate it.
func requireManagedExam(c *fiber.Ctx, actor *models.Actor, examID string) (*models.Exam, error) {
	exam, err := selectors.GetExamByPublicID(database.DB, examID)
	if err != nil {
		return nil, respondError(c, err)
	}
	if exam == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, exam)
	if err != nil {
		return nil, respondError(c, err)
	}
	if !allowed {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return exam, nil
}

func CreateExam(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateExamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	batchID, err := uuid.Parse(req.BatchID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch_id"})
	}

	allowed, err := canManageBatch(actor, batchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var exam *models.Exam
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		exam, err = services.CreateExam(tx, batchID, services.ExamInput{
			Subject:         req.Subject,
			Title:           req.Title,
			Description:     req.Description,
			ExamDate:        req.ExamDate,
			DurationMinutes: req.DurationMinutes,
			TotalMarks:      req.TotalMarks,
			PassMarks:       req.PassMarks,
			ExamType:        req.ExamType,
		})
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exam)
}

func ListExams(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	filters := selectors.ExamFilters{
		Subject:  c.Query("subject"),
		ExamType: c.Query("exam_type"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", selectors.MaxPageSize),
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		id, err := uuid.Parse(batchID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch_id"})
		}
		filters.BatchID = &id
	}
	if published := c.Query("is_published"); published != "" {
		value := published == "true"
		filters.IsPublished = &value
	}
	if active := c.Query("is_active"); active != "" {
		value := active == "true"
		filters.IsActive = &value
	}

	exams, pageInfo, err := selectors.ListExams(database.DB, actor, filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": exams, "pagination": pageInfo})
}

func GetExam(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := selectors.GetExamWithQuestions(database.DB, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if exam == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		allowed, err := selectors.CanManageExam(database.DB, actor, exam)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	case models.RoleStudent:
		if actor.Student == nil || !exam.IsPublished || !exam.IsActive {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
		}
		enrollment, err := services.ActiveEnrollment(database.DB, actor.Student.ID, exam.BatchID)
		if err != nil {
			return respondError(c, err)
		}
		if enrollment == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.JSON(exam)
}

func UpdateExam(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var req UpdateExamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var updated *models.Exam
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updated, err = services.UpdateExam(tx, exam.ExamID, services.ExamInput{
			Subject:         req.Subject,
			Title:           req.Title,
			Description:     req.Description,
			ExamDate:        req.ExamDate,
			DurationMinutes: req.DurationMinutes,
			TotalMarks:      req.TotalMarks,
			PassMarks:       req.PassMarks,
			ExamType:        req.ExamType,
		})
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func DeleteExam(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var archived *models.Exam
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		archived, err = services.ArchiveExam(tx, exam.ExamID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Exam archived", "exam": archived})
}

func PublishExam(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var published *models.Exam
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		published, err = services.PublishExam(tx, exam.ExamID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(published)
}

// PublishExamResults releases results and emails every enrolled student
// who has an address on file.
func PublishExamResults(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var published *models.Exam
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		published, err = services.PublishExamResults(tx, exam.ExamID, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	var recipients []models.User
	err = database.DB.Model(&models.User{}).
		Joins("JOIN students ON students.user_id = users.id").
		Joins("JOIN batch_enrollments ON batch_enrollments.student_id = students.id").
		Where("batch_enrollments.batch_id = ? AND batch_enrollments.is_active = ? AND users.email IS NOT NULL",
			published.BatchID, true).
		Find(&recipients).Error
	if err == nil {
		for _, recipient := range recipients {
			go notifications.SendEmail(recipient.FullName, *recipient.Email,
				"Results published: "+published.Title,
				"<h1>Results are out</h1><p>Your result for <strong>"+published.Title+"</strong> has been published. Log in to view it.</p>")
		}
	}

	return c.JSON(published)
}

func AddExamQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var req AddQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.QuestionInput{
		QuestionText:   req.QuestionText,
		QuestionType:   req.QuestionType,
		Marks:          req.Marks,
		QuestionOrder:  req.QuestionOrder,
		IsRequired:     true,
		ExpectedAnswer: req.ExpectedAnswer,
		MarkingScheme:  req.MarkingScheme,
	}
	if req.IsRequired != nil {
		input.IsRequired = *req.IsRequired
	}
	for _, opt := range req.Options {
		input.Options = append(input.Options, services.OptionInput{
			OptionText:  opt.OptionText,
			IsCorrect:   opt.IsCorrect,
			OptionOrder: opt.OptionOrder,
			Explanation: opt.Explanation,
		})
	}

	var question *models.Question
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		question, err = services.AddQuestion(tx, exam.ExamID, input, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

func CopyQuestionFromBank(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	var req CopyFromBankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var question *models.Question
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		question, err = services.CopyQuestionFromBank(tx, exam.ExamID, req.BankQuestionID, req.Marks, req.QuestionOrder, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

func UpdateExamQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	questionID, err := uuid.Parse(c.Params("questionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question id"})
	}

	var question models.Question
	if err := database.DB.Where("id = ?", questionID).First(&question).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	var exam models.Exam
	if err := database.DB.Where("id = ?", question.ExamID).First(&exam).Error; err != nil {
		return respondError(c, err)
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, &exam)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateQuestionRequest struct {
		QuestionText  *string  `json:"question_text,omitempty"`
		Marks         *float64 `json:"marks,omitempty"`
		QuestionOrder *int     `json:"question_order,omitempty"`
		IsRequired    *bool    `json:"is_required,omitempty"`
	}
	var req UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var updated *models.Question
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updated, err = services.UpdateQuestion(tx, questionID, req.QuestionText, req.Marks, req.QuestionOrder, req.IsRequired)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func DeleteExamQuestion(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	questionID, err := uuid.Parse(c.Params("questionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question id"})
	}

	var question models.Question
	if err := database.DB.Where("id = ?", questionID).First(&question).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	var exam models.Exam
	if err := database.DB.Where("id = ?", question.ExamID).First(&exam).Error; err != nil {
		return respondError(c, err)
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, &exam)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return services.DeleteQuestion(tx, questionID)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Question deleted"})
}
