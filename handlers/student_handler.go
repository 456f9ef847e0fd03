package handlers

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateStudentRequest struct {
	FullName      string     `json:"full_name" validate:"required,min=3"`
	MobileNumber  string     `json:"mobile_number" validate:"required,min=11,max=15"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Password      string     `json:"password" validate:"required,min=6"`
	SchoolName    string     `json:"school_name"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Address       string     `json:"address"`
}

// CreateStudent provisions a student account plus profile in one step.
// Admin and academy staff use this; self-registration goes through
// /auth/register.
func CreateStudent(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	var student models.Student
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			ID:           uuid.New(),
			FullName:     req.FullName,
			MobileNumber: req.MobileNumber,
			Email:        req.Email,
			Password:     string(hashedPassword),
			Role:         models.RoleStudent,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("mobile number already registered")
			}
			return err
		}

		student = models.Student{
			ID:            uuid.New(),
			UserID:        user.ID,
			SchoolName:    req.SchoolName,
			GuardianName:  req.GuardianName,
			GuardianPhone: req.GuardianPhone,
			DateOfBirth:   req.DateOfBirth,
			Address:       req.Address,
			IsActive:      true,
		}
		if err := tx.Create(&student).Error; err != nil {
			return err
		}
		student.User = user
		return nil
	})
	if err != nil {
		if err.Error() == "mobile number already registered" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mobile number already registered"})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(student)
}

// ListStudents is role-scoped: admins see everyone, academies see the
// students enrolled in their batches.
func ListStudents(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	query := database.DB.Model(&models.Student{}).Preload("User").
		Where("students.is_active = ?", true)

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.JSON(fiber.Map{"students": []models.Student{}})
		}
		enrolled := database.DB.Model(&models.BatchEnrollment{}).
			Select("batch_enrollments.student_id").
			Joins("JOIN batches ON batches.id = batch_enrollments.batch_id").
			Joins("JOIN courses ON courses.id = batches.course_id").
			Where("courses.academy_id = ? AND batch_enrollments.is_active = ?", actor.Academy.ID, true)
		query = query.Where("students.id IN (?)", enrolled)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var students []models.Student
	if err := query.Order("students.created_at DESC").Find(&students).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"students": students})
}

func UpdateStudent(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	studentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student id"})
	}

	var student models.Student
	if err := database.DB.Preload("User").Where("id = ?", studentID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		}
		return respondError(c, err)
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		var enrolled int64
		err := database.DB.Model(&models.BatchEnrollment{}).
			Joins("JOIN batches ON batches.id = batch_enrollments.batch_id").
			Joins("JOIN courses ON courses.id = batches.course_id").
			Where("batch_enrollments.student_id = ? AND courses.academy_id = ?", student.ID, actor.Academy.ID).
			Count(&enrolled).Error
		if err != nil {
			return respondError(c, err)
		}
		if enrolled == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateRequest struct {
		SchoolName    string     `json:"school_name"`
		GuardianName  string     `json:"guardian_name"`
		GuardianPhone string     `json:"guardian_phone"`
		DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
		Address       string     `json:"address"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.SchoolName != "" {
		student.SchoolName = req.SchoolName
	}
	if req.GuardianName != "" {
		student.GuardianName = req.GuardianName
	}
	if req.GuardianPhone != "" {
		student.GuardianPhone = req.GuardianPhone
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = req.DateOfBirth
	}
	if req.Address != "" {
		student.Address = req.Address
	}

	if err := database.DB.Save(&student).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(student)
}
