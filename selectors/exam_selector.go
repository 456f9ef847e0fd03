package selectors

import (
	"errors"
	"strings"
	"time"

	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamFilters struct {
	BatchID     *uuid.UUID
	Subject     string
	ExamType    string
	IsPublished *bool
	IsActive    *bool
	Search      string
	Ordering    string
	Page        int
	PageSize    int
}

// examOrderings is the whitelist of client-suppliable sort fields.
// Anything else falls back to the exam_date default.
var examOrderings = map[string]bool{
	"id":                  true,
	"title":               true,
	"is_published":        true,
	"is_active":           true,
	"exam_date":           true,
	"results_published":   true,
	"result_published_at": true,
}

func examOrderClause(ordering string) string {
	field := ordering
	desc := false
	if strings.HasPrefix(ordering, "-") {
		field = ordering[1:]
		desc = true
	}
	if !examOrderings[field] {
		return "exams.exam_date"
	}
	if desc {
		return "exams." + field + " DESC"
	}
	return "exams." + field
}

// scopeExams narrows the exam query to what the actor's role entitles
// them to. The second return is false when the role resolves to nothing
// at all, in which case the caller returns an empty page without
// touching the database.
func scopeExams(db *gorm.DB, actor *models.Actor) (*gorm.DB, bool) {
	query := db.Model(&models.Exam{})

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
			Where("courses.academy_id = ? AND exams.is_active = ?", actor.Academy.ID, true), true
	case models.RoleStudent:
		if actor.Student == nil {
			return nil, false
		}
		enrolled := db.Model(&models.BatchEnrollment{}).
			Select("batch_id").
			Where("student_id = ? AND is_active = ?", actor.Student.ID, true)
		return query.
			Where("exams.batch_id IN (?)", enrolled).
			Where("exams.is_published = ? AND exams.is_active = ?", true, true), true
	default:
		return nil, false
	}
}

// ListExams returns the page of exams the actor may see. Filters,
// search and ordering apply after role scoping, so no parameter can
// widen the scope.
func ListExams(db *gorm.DB, actor *models.Actor, f ExamFilters) ([]models.Exam, PageInfo, error) {
	query, ok := scopeExams(db, actor)
	if !ok {
		return []models.Exam{}, emptyPage(f.Page, f.PageSize), nil
	}

	if f.BatchID != nil {
		query = query.Where("exams.batch_id = ?", *f.BatchID)
	}
	if f.Subject != "" {
		query = query.Where("exams.subject = ?", f.Subject)
	}
	if f.ExamType != "" {
		query = query.Where("exams.exam_type = ?", f.ExamType)
	}
	if f.IsPublished != nil {
		query = query.Where("exams.is_published = ?", *f.IsPublished)
	}
	if f.IsActive != nil {
		query = query.Where("exams.is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(exams.title) LIKE ? OR LOWER(exams.description) LIKE ?", pattern, pattern)
	}

	query = query.Order(examOrderClause(f.Ordering)).Preload("Batch")

	var exams []models.Exam
	info, err := paginate(query, f.Page, f.PageSize, &exams)
	if err != nil {
		return nil, PageInfo{}, err
	}
	return exams, info, nil
}

// GetExamByPublicID fetches one exam by its EXM identifier, nil when
// absent.
func GetExamByPublicID(db *gorm.DB, examID string) (*models.Exam, error) {
	var exam models.Exam
	err := db.Preload("Batch").Where("exam_id = ?", examID).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// GetExamWithQuestions loads the exam and its ordered questions and
// options, for rendering an exam paper.
func GetExamWithQuestions(db *gorm.DB, examID string) (*models.Exam, error) {
	var exam models.Exam
	err := db.
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("question_order") }).
		Preload("Questions.Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("option_order") }).
		Where("exam_id = ?", examID).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// UpcomingExams lists active exams starting inside the window. The
// reminder job walks this.
func UpcomingExams(db *gorm.DB, within time.Duration) ([]models.Exam, error) {
	now := time.Now()
	var exams []models.Exam
	err := db.Preload("Batch").
		Where("exam_date >= ? AND exam_date <= ? AND is_active = ?", now, now.Add(within), true).
		Order("exam_date").
		Find(&exams).Error
	return exams, err
}

// CanManageExam reports whether the actor may mutate this exam or grade
// its answers: admins always, academies only inside their own tenant.
func CanManageExam(db *gorm.DB, actor *models.Actor, exam *models.Exam) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleAcademy:
		if actor.Academy == nil {
			return false, nil
		}
		var count int64
		err := db.Model(&models.Batch{}).
			Joins("JOIN courses ON courses.id = batches.course_id").
			Where("batches.id = ? AND courses.academy_id = ?", exam.BatchID, actor.Academy.ID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		return count > 0, nil
	default:
		return false, nil
	}
}
