package services

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// getSession loads a session with its exam, which the timing math needs.
func getSession(tx *gorm.DB, sessionID string) (*models.ExamSession, error) {
	var session models.ExamSession
	err := tx.Preload("Exam").Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("session %s not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// StartSession opens a timed attempt for a student on an online exam.
// Calling it again while an attempt is open returns the open session
// unchanged; the unique (exam, student) index settles concurrent starts.
func StartSession(tx *gorm.DB, examID string, studentID uuid.UUID, ipAddress, userAgent string) (*models.ExamSession, error) {
	var exam models.Exam
	err := tx.Where("exam_id = ? AND is_active = ?", examID, true).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("exam %s not found", examID)
	}
	if err != nil {
		return nil, err
	}

	if !exam.IsOnline() {
		return nil, apperrors.NotEligible("this is not an online exam")
	}
	if !exam.IsPublished {
		return nil, apperrors.NotEligible("exam is not published")
	}

	enrollment, err := ActiveEnrollment(tx, studentID, exam.BatchID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperrors.NotEligible("student is not enrolled in this exam batch")
	}

	var existing models.ExamSession
	err = tx.Preload("Exam").Where("exam_id = ? AND student_id = ?", exam.ID, studentID).First(&existing).Error
	if err == nil {
		if existing.IsInProgress() {
			return &existing, nil
		}
		return nil, apperrors.InvalidState("session already %s", existing.Status)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := models.NewExamSession(exam.ID, studentID, enrollment.ID)
	session.IPAddress = ipAddress
	session.UserAgent = userAgent

	if err := tx.Create(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent start; hand back the winner.
			var winner models.ExamSession
			if ferr := tx.Preload("Exam").Where("exam_id = ? AND student_id = ? AND status = ?",
				exam.ID, studentID, models.SessionStatusInProgress).First(&winner).Error; ferr == nil {
				return &winner, nil
			}
			return nil, apperrors.Duplicate("session already exists for this exam and student")
		}
		return nil, err
	}

	session.Exam = exam
	return &session, nil
}

// RecordActivity stores the client-reported cumulative minutes and stamps
// the activity time. Crossing the allowed-minutes boundary closes the
// session as a timeout right here, so a timed-out attempt can never
// accept another answer.
func RecordActivity(tx *gorm.DB, sessionID string, timeSpentMinutes *int) (*models.ExamSession, error) {
	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsInProgress() {
		return nil, apperrors.InvalidState("session is not active")
	}

	if timeSpentMinutes != nil {
		session.TimeSpentMinutes = *timeSpentMinutes
	}
	session.LastActivityAt = time.Now()

	if session.IsTimeout() {
		now := time.Now()
		session.Status = models.SessionStatusTimeout
		session.SubmittedAt = &now
	}

	if err := tx.Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitSession closes an open attempt as submitted.
func SubmitSession(tx *gorm.DB, sessionID string) (*models.ExamSession, error) {
	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsInProgress() {
		return nil, apperrors.InvalidState("session is not in progress")
	}

	now := time.Now()
	session.Status = models.SessionStatusSubmitted
	session.SubmittedAt = &now

	if err := tx.Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ExtendSessionTime grants extra minutes to an open attempt. It widens
// the timeout boundary but never changes status by itself.
func ExtendSessionTime(tx *gorm.DB, sessionID string, extraMinutes int, actor *models.User) (*models.ExamSession, error) {
	if extraMinutes <= 0 {
		return nil, apperrors.InvalidState("extra minutes must be positive")
	}

	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsInProgress() {
		return nil, apperrors.InvalidState("cannot extend a %s session", session.Status)
	}

	session.IsTimeExtended = true
	session.ExtendedTimeMinutes += extraMinutes

	if err := tx.Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ForceSessionStatus closes an open attempt from an external signal, e.g.
// a browser-close webhook marking it interrupted, or the watchdog marking
// it timed out.
func ForceSessionStatus(tx *gorm.DB, sessionID string, status string, timeSpentMinutes *int) (*models.ExamSession, error) {
	if status != models.SessionStatusInterrupted && status != models.SessionStatusTimeout {
		return nil, apperrors.InvalidState("cannot force session into status %q", status)
	}

	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsInProgress() {
		return nil, apperrors.InvalidState("session is not in progress")
	}

	if timeSpentMinutes != nil {
		session.TimeSpentMinutes = *timeSpentMinutes
	}
	now := time.Now()
	session.Status = status
	session.SubmittedAt = &now

	if err := tx.Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}
