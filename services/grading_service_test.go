package services

import (
	"testing"

	"github.com/classmatebd/classmate_backend/models"
)

func TestClassifyGrade(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, "A+"},
		{90, "A+"},
		{89.99, "A"},
		{80, "A"},
		{79.5, "A-"},
		{70, "A-"},
		{69, "B"},
		{60, "B"},
		{59.9, "C"},
		{50, "C"},
		{49, "D"},
		{40, "D"},
		{39.99, "F"},
		{1, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		if got := ClassifyGrade(tt.percentage); got != tt.want {
			t.Errorf("ClassifyGrade(%.2f) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}

func TestLookupGradeResolvesSeededRows(t *testing.T) {
	db := newTestDB(t)

	for _, label := range models.GradeLabels {
		grade, err := LookupGrade(db, label)
		if err != nil {
			t.Fatalf("LookupGrade(%s): %v", label, err)
		}
		if grade == nil || grade.Grade != label {
			t.Errorf("LookupGrade(%s) = %+v, want row with that label", label, grade)
		}
	}
}

// A missing grade row must not fail result saving; it resolves to no
// grade at all.
func TestLookupGradeMissingRowIsNotAnError(t *testing.T) {
	db := newTestDB(t)

	if err := db.Where("grade = ?", "D").Delete(&models.Grade{}).Error; err != nil {
		t.Fatalf("delete grade: %v", err)
	}

	grade, err := LookupGrade(db, "D")
	if err != nil {
		t.Fatalf("LookupGrade: %v", err)
	}
	if grade != nil {
		t.Errorf("LookupGrade(D) = %+v, want nil", grade)
	}
}

func TestGradeForScore(t *testing.T) {
	db := newTestDB(t)

	grade, err := GradeForScore(db, 40, 100)
	if err != nil {
		t.Fatalf("GradeForScore: %v", err)
	}
	if grade == nil || grade.Grade != "D" {
		t.Errorf("GradeForScore(40/100) = %+v, want D", grade)
	}

	// Zero or negative totals cannot be classified.
	grade, err = GradeForScore(db, 10, 0)
	if err != nil {
		t.Fatalf("GradeForScore zero total: %v", err)
	}
	if grade != nil {
		t.Errorf("GradeForScore(10/0) = %+v, want nil", grade)
	}
}
