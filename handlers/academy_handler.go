package handlers

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAcademyRequest struct {
	UserID        string `json:"user_id" validate:"required,uuid4"`
	Name          string `json:"name" validate:"required,min=3"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number" validate:"required,min=11,max=15"`
}

type CourseRequest struct {
	AcademyID string  `json:"academy_id,omitempty"`
	Name      string  `json:"name" validate:"required,min=2"`
	Code      string  `json:"code"`
	Subject   string  `json:"subject"`
	Fee       float64 `json:"fee" validate:"gte=0"`
}

type BatchRequest struct {
	CourseID  string     `json:"course_id" validate:"required,uuid4"`
	Name      string     `json:"name" validate:"required,min=2"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Capacity  int        `json:"capacity" validate:"gte=0"`
}

// academyOwnsCourse reports whether the course belongs to the academy.
func academyOwnsCourse(courseID, academyID uuid.UUID) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Course{}).
		Where("id = ? AND academy_id = ?", courseID, academyID).
		Count(&count).Error
	return count > 0, err
}

// academyOwnsBatch walks batch -> course -> academy.
func academyOwnsBatch(batchID, academyID uuid.UUID) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Batch{}).
		Joins("JOIN courses ON courses.id = batches.course_id").
		Where("batches.id = ? AND courses.academy_id = ?", batchID, academyID).
		Count(&count).Error
	return count > 0, err
}

// CreateAcademy registers an academy profile on an existing user and
// promotes them to the academy role. Admin only.
func CreateAcademy(c *fiber.Ctx) error {
	var req CreateAcademyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
	}

	var academy models.Academy
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Where("id = ? AND is_active = ?", userID, true).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("user not found")
			}
			return err
		}

		if owner.Role != models.RoleAcademy {
			owner.Role = models.RoleAcademy
			if err := tx.Save(&owner).Error; err != nil {
				return err
			}
		}

		academy = models.Academy{
			ID:            uuid.New(),
			UserID:        owner.ID,
			Name:          req.Name,
			Address:       req.Address,
			ContactNumber: req.ContactNumber,
			IsActive:      true,
		}
		if err := tx.Create(&academy).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("user already owns an academy")
			}
			return err
		}
		return nil
	})
	if err != nil {
		switch err.Error() {
		case "user not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case "user already owns an academy":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already owns an academy"})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(academy)
}

func ListAcademies(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	query := database.DB.Model(&models.Academy{})
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.JSON(fiber.Map{"academies": []models.Academy{}})
		}
		query = query.Where("id = ?", actor.Academy.ID)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var academies []models.Academy
	if err := query.Order("name").Find(&academies).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"academies": academies})
}

func UpdateAcademy(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	academyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid academy id"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil || actor.Academy.ID != academyID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateRequest struct {
		Name          string `json:"name"`
		Address       string `json:"address"`
		ContactNumber string `json:"contact_number"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var academy models.Academy
	if err := database.DB.Where("id = ?", academyID).First(&academy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Academy not found"})
		}
		return respondError(c, err)
	}

	if req.Name != "" {
		academy.Name = req.Name
	}
	if req.Address != "" {
		academy.Address = req.Address
	}
	if req.ContactNumber != "" {
		academy.ContactNumber = req.ContactNumber
	}

	if err := database.DB.Save(&academy).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(academy)
}

// CreateCourse adds a course under the caller's academy; admins name the
// academy explicitly.
func CreateCourse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var academyID uuid.UUID
	switch actor.Role {
	case models.RoleAdmin:
		academyID, err = uuid.Parse(req.AcademyID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "academy_id is required"})
		}
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No academy profile"})
		}
		academyID = actor.Academy.ID
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	course := models.Course{
		ID:        uuid.New(),
		AcademyID: academyID,
		Name:      req.Name,
		Code:      req.Code,
		Subject:   req.Subject,
		Fee:       req.Fee,
		IsActive:  true,
	}
	if err := database.DB.Create(&course).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func ListCourses(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	query := database.DB.Model(&models.Course{}).Where("is_active = ?", true)
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.JSON(fiber.Map{"courses": []models.Course{}})
		}
		query = query.Where("academy_id = ?", actor.Academy.ID)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var courses []models.Course
	if err := query.Order("name").Find(&courses).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func UpdateCourse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		owns, err := academyOwnsCourse(courseID, actor.Academy.ID)
		if err != nil {
			return respondError(c, err)
		}
		if !owns {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateRequest struct {
		Name     string   `json:"name"`
		Code     string   `json:"code"`
		Subject  string   `json:"subject"`
		Fee      *float64 `json:"fee"`
		IsActive *bool    `json:"is_active"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Fee != nil && *req.Fee < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fee cannot be negative"})
	}

	var course models.Course
	if err := database.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return respondError(c, err)
	}

	if req.Name != "" {
		course.Name = req.Name
	}
	if req.Code != "" {
		course.Code = req.Code
	}
	if req.Subject != "" {
		course.Subject = req.Subject
	}
	if req.Fee != nil {
		course.Fee = *req.Fee
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := database.DB.Save(&course).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(course)
}

func CreateBatch(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course_id"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No academy profile"})
		}
		owns, err := academyOwnsCourse(courseID, actor.Academy.ID)
		if err != nil {
			return respondError(c, err)
		}
		if !owns {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date cannot be before start_date"})
	}

	batch := models.Batch{
		ID:        uuid.New(),
		CourseID:  courseID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Capacity:  req.Capacity,
		IsActive:  true,
	}
	if err := database.DB.Create(&batch).Error; err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(batch)
}

func ListBatches(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	query := database.DB.Model(&models.Batch{}).Where("batches.is_active = ?", true)
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.JSON(fiber.Map{"batches": []models.Batch{}})
		}
		query = query.Joins("JOIN courses ON courses.id = batches.course_id").
			Where("courses.academy_id = ?", actor.Academy.ID)
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if courseID := c.Query("course_id"); courseID != "" {
		id, err := uuid.Parse(courseID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course_id"})
		}
		query = query.Where("batches.course_id = ?", id)
	}

	var batches []models.Batch
	if err := query.Order("batches.start_date DESC").Find(&batches).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"batches": batches})
}

func UpdateBatch(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		if actor.Academy == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		owns, err := academyOwnsBatch(batchID, actor.Academy.ID)
		if err != nil {
			return respondError(c, err)
		}
		if !owns {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	type UpdateRequest struct {
		Name      string     `json:"name"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
		Capacity  *int       `json:"capacity"`
		IsActive  *bool      `json:"is_active"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "capacity cannot be negative"})
	}

	var batch models.Batch
	if err := database.DB.Where("id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Batch not found"})
		}
		return respondError(c, err)
	}

	if req.Name != "" {
		batch.Name = req.Name
	}
	if req.StartDate != nil {
		batch.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		batch.EndDate = req.EndDate
	}
	if req.Capacity != nil {
		batch.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		batch.IsActive = *req.IsActive
	}
	if batch.EndDate != nil && batch.EndDate.Before(batch.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date cannot be before start_date"})
	}

	if err := database.DB.Save(&batch).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(batch)
}
