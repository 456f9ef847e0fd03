package handlers

import (
	"context"
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/selectors"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnterPaperResultRequest struct {
	ExamID        string   `json:"exam_id" validate:"required"`
	StudentID     string   `json:"student_id" validate:"required,uuid4"`
	ObtainedMarks *float64 `json:"obtained_marks" validate:"required,gte=0"`
	WasPresent    *bool    `json:"was_present,omitempty"`
	Remarks       string   `json:"remarks"`
}

// requireManagedResult loads a result and checks the actor may mutate it.
func requireManagedResult(c *fiber.Ctx, actor *models.Actor, resultID string) (*models.ExamResult, error) {
	result, err := selectors.GetResultByPublicID(database.DB, resultID)
	if err != nil {
		return nil, respondError(c, err)
	}
	if result == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, &result.Exam)
	if err != nil {
		return nil, respondError(c, err)
	}
	if !allowed {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return result, nil
}

// ProcessSessionResult turns a closed session into its result row.
func ProcessSessionResult(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedSession(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var result *models.ExamResult
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result, err = services.ProcessResult(tx, managed.SessionID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func ListResults(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	filters := selectors.ResultFilters{
		ExamID:   c.Query("exam_id"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", selectors.MaxPageSize),
	}
	if studentID := c.Query("student_id"); studentID != "" {
		id, err := uuid.Parse(studentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id"})
		}
		filters.StudentID = &id
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		id, err := uuid.Parse(batchID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch_id"})
		}
		filters.BatchID = &id
	}
	if passed := c.Query("is_passed"); passed != "" {
		value := passed == "true"
		filters.IsPassed = &value
	}

	results, pageInfo, err := selectors.ListResults(database.DB, actor, filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": results, "pagination": pageInfo})
}

func GetResult(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := selectors.GetResultByPublicID(database.DB, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		allowed, err := selectors.CanManageExam(database.DB, actor, &result.Exam)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	case models.RoleStudent:
		if actor.Student == nil || result.StudentID != actor.Student.ID || !result.Exam.ResultsPublished {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.JSON(result)
}

// EnterPaperResult records marks for a paper-based exam directly.
func EnterPaperResult(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req EnterPaperResultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	exam, err := requireManagedExam(c, actor, req.ExamID)
	if exam == nil {
		return err
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id"})
	}

	wasPresent := true
	if req.WasPresent != nil {
		wasPresent = *req.WasPresent
	}

	var result *models.ExamResult
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result, err = services.EnterPaperResult(tx, exam.ExamID, studentID, *req.ObtainedMarks, wasPresent, req.Remarks, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func RecalculateResult(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedResult(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var result *models.ExamResult
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result, err = services.RecalculateResult(tx, managed.ResultID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func CompleteManualGrading(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedResult(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var result *models.ExamResult
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result, err = services.CompleteManualGrading(tx, managed.ResultID, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func VerifyResult(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedResult(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var result *models.ExamResult
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result, err = services.VerifyResult(tx, managed.ResultID, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ResultSheet renders the printable sheet for one result as a PDF.
func ResultSheet(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := selectors.GetResultByPublicID(database.DB, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		allowed, err := selectors.CanManageExam(database.DB, actor, &result.Exam)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	case models.RoleStudent:
		if actor.Student == nil || result.StudentID != actor.Student.ID || !result.Exam.ResultsPublished {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pdf, err := services.ResultSheetPDF(ctx, database.DB, result.ResultID)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="result_`+result.ResultID+`.pdf"`)
	return c.Send(pdf)
}
