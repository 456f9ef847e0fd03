package services

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActiveEnrollment returns the student's active enrollment in the batch,
// or nil when there is none. Callers treat nil as "not eligible".
func ActiveEnrollment(tx *gorm.DB, studentID, batchID uuid.UUID) (*models.BatchEnrollment, error) {
	var enrollment models.BatchEnrollment
	err := tx.Where("student_id = ? AND batch_id = ? AND is_active = ?", studentID, batchID, true).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// EnrollStudent puts a student into a batch. A previously deactivated
// enrollment is revived instead of inserting a second row, since one row
// per (student, batch) is all the schema allows.
func EnrollStudent(tx *gorm.DB, studentID, batchID uuid.UUID, remarks string) (*models.BatchEnrollment, error) {
	var student models.Student
	err := tx.Where("id = ? AND is_active = ?", studentID, true).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("student not found")
	}
	if err != nil {
		return nil, err
	}

	var batch models.Batch
	err = tx.Where("id = ? AND is_active = ?", batchID, true).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("batch not found")
	}
	if err != nil {
		return nil, err
	}

	if batch.Capacity > 0 {
		var enrolled int64
		err = tx.Model(&models.BatchEnrollment{}).
			Where("batch_id = ? AND is_active = ?", batchID, true).
			Count(&enrolled).Error
		if err != nil {
			return nil, err
		}
		if enrolled >= int64(batch.Capacity) {
			return nil, apperrors.NotEligible("batch %s is full", batch.Name)
		}
	}

	var existing models.BatchEnrollment
	err = tx.Where("student_id = ? AND batch_id = ?", studentID, batchID).First(&existing).Error
	if err == nil {
		if existing.IsActive {
			return nil, apperrors.Duplicate("student is already enrolled in this batch")
		}
		existing.IsActive = true
		existing.EnrollmentDate = time.Now()
		existing.CompletionDate = nil
		existing.Remarks = remarks
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := models.BatchEnrollment{
		ID:             uuid.New(),
		StudentID:      studentID,
		BatchID:        batchID,
		EnrollmentDate: time.Now(),
		IsActive:       true,
		Remarks:        remarks,
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("student is already enrolled in this batch")
		}
		return nil, err
	}
	return &enrollment, nil
}

// CompleteEnrollment closes out an enrollment with an optional final
// grade label and attendance figure.
func CompleteEnrollment(tx *gorm.DB, enrollmentID uuid.UUID, finalGradeLabel string, attendancePercentage float64, remarks string) (*models.BatchEnrollment, error) {
	var enrollment models.BatchEnrollment
	err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("enrollment not found")
	}
	if err != nil {
		return nil, err
	}

	if !enrollment.IsActive {
		return nil, apperrors.InvalidState("enrollment is not active")
	}
	if attendancePercentage < 0 || attendancePercentage > 100 {
		return nil, apperrors.InvalidAnswer("attendance percentage must be between 0 and 100")
	}

	if finalGradeLabel != "" {
		grade, err := LookupGrade(tx, finalGradeLabel)
		if err != nil {
			return nil, err
		}
		if grade == nil {
			return nil, apperrors.NotFound("grade %s not found", finalGradeLabel)
		}
		enrollment.FinalGradeID = &grade.ID
	}

	now := time.Now()
	enrollment.CompletionDate = &now
	enrollment.AttendancePercentage = attendancePercentage
	if remarks != "" {
		enrollment.Remarks = remarks
	}

	if err := tx.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// DeactivateEnrollment drops a student from a batch without losing the
// enrollment history.
func DeactivateEnrollment(tx *gorm.DB, enrollmentID uuid.UUID, remarks string) (*models.BatchEnrollment, error) {
	var enrollment models.BatchEnrollment
	err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("enrollment not found")
	}
	if err != nil {
		return nil, err
	}

	if !enrollment.IsActive {
		return &enrollment, nil
	}

	enrollment.IsActive = false
	if remarks != "" {
		enrollment.Remarks = remarks
	}

	if err := tx.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}
