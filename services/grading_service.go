package services

import (
	"errors"

	"github.com/classmatebd/classmate_backend/models"
	"gorm.io/gorm"
)

// ClassifyGrade maps a percentage score to its letter grade. Thresholds
// are inclusive lower bounds.
func ClassifyGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "A-"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

// LookupGrade resolves a letter label to its seeded row. A missing row is
// not an error: results are stored without a grade reference until the
// scale is seeded.
func LookupGrade(db *gorm.DB, label string) (*models.Grade, error) {
	var grade models.Grade
	err := db.Where("grade = ?", label).First(&grade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

// GradeForScore classifies obtained/total and resolves the label row.
func GradeForScore(db *gorm.DB, obtainedMarks, totalMarks float64) (*models.Grade, error) {
	if totalMarks <= 0 {
		return nil, nil
	}
	return LookupGrade(db, ClassifyGrade(obtainedMarks/totalMarks*100))
}
