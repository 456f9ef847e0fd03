package handlers

import (
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordPaymentRequest struct {
	EnrollmentID  string     `json:"enrollment_id" validate:"required,uuid4"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	Date          *time.Time `json:"date,omitempty"`
	Method        string     `json:"method" validate:"omitempty,oneof=cash card bkash rocket nagad"`
	Status        string     `json:"status" validate:"omitempty,oneof=pending paid failed cancelled refunded"`
	TransactionID string     `json:"transaction_id"`
	Reference     string     `json:"reference"`
	Remarks       string     `json:"remarks"`
}

type UpdatePaymentRequest struct {
	Amount        float64    `json:"amount" validate:"omitempty,gt=0"`
	Date          *time.Time `json:"date,omitempty"`
	Method        string     `json:"method" validate:"omitempty,oneof=cash card bkash rocket nagad"`
	Status        string     `json:"status" validate:"omitempty,oneof=pending paid failed cancelled refunded"`
	TransactionID string     `json:"transaction_id"`
	Reference     string     `json:"reference"`
	Remarks       string     `json:"remarks"`
}

type RefundPaymentRequest struct {
	Remarks string `json:"remarks"`
}

// paymentBatchID resolves the batch a payment belongs to, for permission
// checks.
func paymentBatchID(paymentID uuid.UUID) (*models.StudentPayment, uuid.UUID, error) {
	var payment models.StudentPayment
	if err := database.DB.Where("id = ?", paymentID).First(&payment).Error; err != nil {
		return nil, uuid.Nil, err
	}
	var enrollment models.BatchEnrollment
	if err := database.DB.Where("id = ?", payment.BatchEnrollmentID).First(&enrollment).Error; err != nil {
		return nil, uuid.Nil, err
	}
	return &payment, enrollment.BatchID, nil
}

func RecordPayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	enrollmentID, err := uuid.Parse(req.EnrollmentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment_id"})
	}

	var enrollment models.BatchEnrollment
	if err := database.DB.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}
	allowed, err := canManageBatch(actor, enrollment.BatchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	input := services.PaymentInput{
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        req.Status,
		TransactionID: req.TransactionID,
		Reference:     req.Reference,
		Remarks:       req.Remarks,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}

	var payment *models.StudentPayment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		payment, err = services.RecordPayment(tx, enrollmentID, input)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

func ListPayments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	query := database.DB.Model(&models.StudentPayment{})
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.JSON(fiber.Map{"results": []models.StudentPayment{}, "count": 0})
		}
		query = query.
			Joins("JOIN batch_enrollments ON batch_enrollments.id = student_payments.batch_enrollment_id").
			Joins("JOIN batches ON batches.id = batch_enrollments.batch_id").
			Joins("JOIN courses ON courses.id = batches.course_id").
			Where("courses.academy_id = ?", actor.Academy.ID)
	case models.RoleStudent:
		if actor.Student == nil {
			return c.JSON(fiber.Map{"results": []models.StudentPayment{}, "count": 0})
		}
		query = query.Where("student_payments.student_id = ?", actor.Student.ID)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if enrollmentID := c.Query("enrollment_id"); enrollmentID != "" {
		id, err := uuid.Parse(enrollmentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment_id"})
		}
		query = query.Where("student_payments.batch_enrollment_id = ?", id)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("student_payments.status = ?", status)
	}

	var payments []models.StudentPayment
	if err := query.Order("student_payments.date DESC").Find(&payments).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": payments, "count": len(payments)})
}

func UpdatePayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	_, batchID, err := paymentBatchID(paymentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}
	allowed, err := canManageBatch(actor, batchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.PaymentInput{
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        req.Status,
		TransactionID: req.TransactionID,
		Reference:     req.Reference,
		Remarks:       req.Remarks,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}

	var payment *models.StudentPayment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		payment, err = services.UpdatePayment(tx, paymentID, input)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

func RefundPayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	_, batchID, err := paymentBatchID(paymentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}
	allowed, err := canManageBatch(actor, batchID)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req RefundPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
	}

	var payment *models.StudentPayment
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		payment, err = services.RefundPayment(tx, paymentID, req.Remarks)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}
