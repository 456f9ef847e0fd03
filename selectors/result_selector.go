package selectors

import (
	"errors"

	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResultFilters struct {
	ExamID    string
	StudentID *uuid.UUID
	BatchID   *uuid.UUID
	IsPassed  *bool
	Page      int
	PageSize  int
}

func scopeResults(db *gorm.DB, actor *models.Actor) (*gorm.DB, bool) {
	query := db.Model(&models.ExamResult{}).
		Joins("JOIN exams ON exams.id = exam_results.exam_id")

	switch actor.Role {
	case models.RoleAdmin:
		return query, true
	case models.RoleAcademy:
		if actor.Academy == nil {
			return nil, false
		}
		return query.
			Joins("JOIN batches ON batches.id = exams.batch_id").
			Joins("JOIN courses ON courses.id = batches.course_id").
			Where("courses.academy_id = ?", actor.Academy.ID), true
	case models.RoleStudent:
		if actor.Student == nil {
			return nil, false
		}
		// Students see only their own rows, and only once the exam's
		// results are published.
		return query.
			Where("exam_results.student_id = ?", actor.Student.ID).
			Where("exams.results_published = ?", true), true
	default:
		return nil, false
	}
}

// ListResults returns the page of results the actor may see, best marks
// first. Scoping applies before any filter.
func ListResults(db *gorm.DB, actor *models.Actor, f ResultFilters) ([]models.ExamResult, PageInfo, error) {
	query, ok := scopeResults(db, actor)
	if !ok {
		return []models.ExamResult{}, emptyPage(f.Page, f.PageSize), nil
	}

	if f.ExamID != "" {
		query = query.Where("exams.exam_id = ?", f.ExamID)
	}
	if f.StudentID != nil {
		query = query.Where("exam_results.student_id = ?", *f.StudentID)
	}
	if f.BatchID != nil {
		query = query.Where("exams.batch_id = ?", *f.BatchID)
	}
	if f.IsPassed != nil {
		query = query.Where("exam_results.is_passed = ?", *f.IsPassed)
	}

	query = query.Order("exam_results.obtained_marks DESC").
		Preload("Exam").Preload("Grade").Preload("Student").Preload("Student.User")

	var results []models.ExamResult
	info, err := paginate(query, f.Page, f.PageSize, &results)
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, info, nil
}

// GetResultByPublicID fetches one result by its RES identifier, nil
// when absent.
func GetResultByPublicID(db *gorm.DB, resultID string) (*models.ExamResult, error) {
	var result models.ExamResult
	err := db.Preload("Exam").Preload("Grade").Preload("Student").Preload("Student.User").
		Where("result_id = ?", resultID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResultBySession fetches the result produced from a session, nil
// when the session has not been processed.
func GetResultBySession(db *gorm.DB, sessionID uuid.UUID) (*models.ExamResult, error) {
	var result models.ExamResult
	err := db.Preload("Exam").Preload("Grade").
		Where("session_id = ?", sessionID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
