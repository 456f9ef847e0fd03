package handlers

import (
	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	BatchID   string `json:"batch_id" validate:"required,uuid4"`
	Remarks   string `json:"remarks"`
}

type CompleteEnrollmentRequest struct {
	FinalGrade           string  `json:"final_grade"`
	AttendancePercentage float64 `json:"attendance_percentage" validate:"gte=0,lte=100"`
	Remarks              string  `json:"remarks"`
}

// canManageBatch gates enrollment mutations to admins and the owning
// academy.
func canManageBatch(actor *models.Actor, batchID uuid.UUID) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleAcademy:
		if actor.Academy == nil {
			return false, nil
		}
		return academyOwnsBatch(batchID, actor.Academy.ID)
	default:
		return false, nil
	}
}

func EnrollStudent(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id"})
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

	var enrollment *models.BatchEnrollment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		enrollment, err = services.EnrollStudent(tx, studentID, batchID, req.Remarks)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func CompleteEnrollment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	enrollmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment id"})
	}

	var existing models.BatchEnrollment
	if err := database.DB.Where("id = ?", enrollmentID).First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}
	allowed, err := canManageBatch(actor, existing.BatchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req CompleteEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var enrollment *models.BatchEnrollment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		enrollment, err = services.CompleteEnrollment(tx, enrollmentID, req.FinalGrade, req.AttendancePercentage, req.Remarks)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enrollment)
}

func DeactivateEnrollment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	enrollmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment id"})
	}

	var existing models.BatchEnrollment
	if err := database.DB.Where("id = ?", enrollmentID).First(&existing).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}
	allowed, err := canManageBatch(actor, existing.BatchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type DeactivateRequest struct {
		Remarks string `json:"remarks"`
	}
	var req DeactivateRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var enrollment *models.BatchEnrollment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		enrollment, err = services.DeactivateEnrollment(tx, enrollmentID, req.Remarks)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enrollment)
}

func ListBatchEnrollments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	allowed, err := canManageBatch(actor, batchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var enrollments []models.BatchEnrollment
	err = database.DB.Preload("Student").Preload("Student.User").Preload("FinalGrade").
		Where("batch_id = ?", batchID).
		Order("enrollment_date DESC").
		Find(&enrollments).Error
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}
