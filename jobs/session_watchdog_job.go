package jobs

import (
	"log"
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/classmatebd/classmate_backend/websocket"
	"gorm.io/gorm"
)

// Grace period past the exam window before the watchdog closes a
// session, to absorb clock skew and slow final submissions.
const watchdogGraceMinutes = 5

// CloseExpiredSessions force-times-out in_progress sessions whose exam
// window has fully passed. It goes through the same guarded transition
// the API uses, so a session that closed in the meantime is skipped,
// not clobbered.
func CloseExpiredSessions() {
	log.Println("Running job: CloseExpiredSessions...")

	var openSessions []models.ExamSession
	err := database.DB.Preload("Exam").
		Where("status = ?", models.SessionStatusInProgress).
		Find(&openSessions).Error
	if err != nil {
		log.Printf("Error loading open sessions: %v", err)
		return
	}

	now := time.Now()
	closed := 0
	for _, session := range openSessions {
		windowMinutes := session.Exam.DurationMinutes + session.ExtendedTimeMinutes + watchdogGraceMinutes
		deadline := session.Exam.ExamDate.Add(time.Duration(windowMinutes) * time.Minute)
		if now.Before(deadline) {
			continue
		}

		spent := session.TotalAllowedMinutes()
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			_, err := services.ForceSessionStatus(tx, session.SessionID, models.SessionStatusTimeout, &spent)
			return err
		})
		if err != nil {
			log.Printf("Error timing out session %s: %v", session.SessionID, err)
			continue
		}

		websocket.PublishSessionEvent(session.Exam.ExamID, session.SessionID,
			"timeout", "", models.SessionStatusTimeout, spent)
		closed++
	}

	if closed > 0 {
		log.Printf("Timed out %d expired session(s).", closed)
	}
}
