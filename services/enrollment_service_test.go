package services

import (
	"errors"
	"testing"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
)

func TestEnrollStudent(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)

	enrollment, err := EnrollStudent(db, student.ID, batch.ID, "january intake")
	if err != nil {
		t.Fatalf("EnrollStudent: %v", err)
	}

	if !enrollment.IsActive {
		t.Error("new enrollment should be active")
	}
	if enrollment.EnrollmentDate.IsZero() {
		t.Error("enrollment date not stamped")
	}
	if enrollment.Remarks != "january intake" {
		t.Errorf("remarks = %q", enrollment.Remarks)
	}

	// A second active enrollment is refused.
	if _, err := EnrollStudent(db, student.ID, batch.ID, ""); !errors.Is(err, apperrors.ErrDuplicateConstraint) {
		t.Errorf("double enrollment: err = %v, want duplicate", err)
	}
}

func TestEnrollStudentCapacity(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	db.Model(batch).Update("capacity", 1)

	first := createTestStudent(t, db)
	if _, err := EnrollStudent(db, first.ID, batch.ID, ""); err != nil {
		t.Fatalf("EnrollStudent: %v", err)
	}

	second := createTestStudent(t, db)
	if _, err := EnrollStudent(db, second.ID, batch.ID, ""); !errors.Is(err, apperrors.ErrNotEligible) {
		t.Fatalf("enrolling into a full batch: err = %v, want not eligible", err)
	}

	// Dropping the first student frees the seat.
	var enrollment models.BatchEnrollment
	if err := db.Where("student_id = ? AND batch_id = ?", first.ID, batch.ID).First(&enrollment).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if _, err := DeactivateEnrollment(db, enrollment.ID, "left"); err != nil {
		t.Fatalf("DeactivateEnrollment: %v", err)
	}
	if _, err := EnrollStudent(db, second.ID, batch.ID, ""); err != nil {
		t.Errorf("enrolling after a seat freed: %v", err)
	}
}

func TestEnrollStudentRevivesInactiveRow(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)

	original, err := EnrollStudent(db, student.ID, batch.ID, "")
	if err != nil {
		t.Fatalf("EnrollStudent: %v", err)
	}
	if _, err := DeactivateEnrollment(db, original.ID, "dropped"); err != nil {
		t.Fatalf("DeactivateEnrollment: %v", err)
	}

	revived, err := EnrollStudent(db, student.ID, batch.ID, "returned")
	if err != nil {
		t.Fatalf("re-enrollment: %v", err)
	}

	if revived.ID != original.ID {
		t.Error("re-enrollment created a second row")
	}
	if !revived.IsActive {
		t.Error("revived enrollment not active")
	}
	if revived.CompletionDate != nil {
		t.Error("revival must clear the completion date")
	}
	if revived.Remarks != "returned" {
		t.Errorf("remarks = %q, want %q", revived.Remarks, "returned")
	}

	var count int64
	db.Model(&models.BatchEnrollment{}).Where("student_id = ? AND batch_id = ?", student.ID, batch.ID).Count(&count)
	if count != 1 {
		t.Errorf("enrollment rows = %d, want 1", count)
	}
}

func TestEnrollStudentMissingParties(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)

	ghost := createTestStudent(t, db)
	db.Model(ghost).Update("is_active", false)
	if _, err := EnrollStudent(db, ghost.ID, batch.ID, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("inactive student: err = %v, want not found", err)
	}

	closedBatch := createTestBatch(t, db)
	db.Model(closedBatch).Update("is_active", false)
	if _, err := EnrollStudent(db, student.ID, closedBatch.ID, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("inactive batch: err = %v, want not found", err)
	}
}

func TestCompleteEnrollment(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)
	enrollment := enrollTestStudent(t, db, student, batch)

	if _, err := CompleteEnrollment(db, enrollment.ID, "A", 150, ""); !errors.Is(err, apperrors.ErrInvalidAnswer) {
		t.Errorf("attendance above 100: err = %v, want invalid answer", err)
	}
	if _, err := CompleteEnrollment(db, enrollment.ID, "A", -5, ""); !errors.Is(err, apperrors.ErrInvalidAnswer) {
		t.Errorf("negative attendance: err = %v, want invalid answer", err)
	}
	if _, err := CompleteEnrollment(db, enrollment.ID, "A++", 90, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown grade label: err = %v, want not found", err)
	}

	completed, err := CompleteEnrollment(db, enrollment.ID, "A", 92.5, "strong finish")
	if err != nil {
		t.Fatalf("CompleteEnrollment: %v", err)
	}
	if completed.CompletionDate == nil {
		t.Error("completion date not stamped")
	}
	if completed.AttendancePercentage != 92.5 {
		t.Errorf("attendance = %v, want 92.5", completed.AttendancePercentage)
	}
	if completed.FinalGradeID == nil {
		t.Error("final grade not linked")
	}
}

func TestCompleteEnrollmentWithoutGrade(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)
	enrollment := enrollTestStudent(t, db, student, batch)

	completed, err := CompleteEnrollment(db, enrollment.ID, "", 70, "")
	if err != nil {
		t.Fatalf("CompleteEnrollment: %v", err)
	}
	if completed.FinalGradeID != nil {
		t.Error("grade linked without a label")
	}
}

func TestDeactivateEnrollmentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)
	enrollment := enrollTestStudent(t, db, student, batch)

	dropped, err := DeactivateEnrollment(db, enrollment.ID, "moved away")
	if err != nil {
		t.Fatalf("DeactivateEnrollment: %v", err)
	}
	if dropped.IsActive {
		t.Error("enrollment still active")
	}
	if dropped.Remarks != "moved away" {
		t.Errorf("remarks = %q", dropped.Remarks)
	}

	again, err := DeactivateEnrollment(db, enrollment.ID, "ignored")
	if err != nil {
		t.Fatalf("second DeactivateEnrollment: %v", err)
	}
	if again.IsActive {
		t.Error("second deactivation reactivated the row")
	}
	if again.Remarks != "moved away" {
		t.Error("second deactivation rewrote remarks")
	}

	if _, err := CompleteEnrollment(db, enrollment.ID, "", 50, ""); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("completing an inactive enrollment: err = %v, want invalid state", err)
	}
}

func TestActiveEnrollment(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	student := createTestStudent(t, db)

	found, err := ActiveEnrollment(db, student.ID, batch.ID)
	if err != nil {
		t.Fatalf("ActiveEnrollment: %v", err)
	}
	if found != nil {
		t.Error("no enrollment expected before enrolling")
	}

	enrollment := enrollTestStudent(t, db, student, batch)
	found, err = ActiveEnrollment(db, student.ID, batch.ID)
	if err != nil {
		t.Fatalf("ActiveEnrollment: %v", err)
	}
	if found == nil || found.ID != enrollment.ID {
		t.Error("active enrollment not resolved")
	}

	DeactivateEnrollment(db, enrollment.ID, "")
	found, err = ActiveEnrollment(db, student.ID, batch.ID)
	if err != nil {
		t.Fatalf("ActiveEnrollment: %v", err)
	}
	if found != nil {
		t.Error("inactive enrollment treated as active")
	}
}
