package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/notifications"
	"github.com/classmatebd/classmate_backend/selectors"
)

// SendExamReminders emails every enrolled student about published exams
// starting within the next 24 hours, once per exam.
func SendExamReminders() {
	log.Println("Running job: SendExamReminders...")

	exams, err := selectors.UpcomingExams(database.DB, 24*time.Hour)
	if err != nil {
		log.Printf("Error checking for upcoming exams: %v", err)
		return
	}

	for _, exam := range exams {
		if !exam.IsPublished || exam.AppNotificationSent {
			continue
		}

		var recipients []models.User
		err := database.DB.Model(&models.User{}).
			Joins("JOIN students ON students.user_id = users.id").
			Joins("JOIN batch_enrollments ON batch_enrollments.student_id = students.id").
			Where("batch_enrollments.batch_id = ? AND batch_enrollments.is_active = ? AND users.email IS NOT NULL",
				exam.BatchID, true).
			Find(&recipients).Error
		if err != nil {
			log.Printf("Error loading recipients for exam %s: %v", exam.ExamID, err)
			continue
		}

		log.Printf("Sending reminders for exam %s to %d student(s)", exam.ExamID, len(recipients))

		emailSubject := fmt.Sprintf("Reminder: %s starts soon", exam.Title)
		for _, recipient := range recipients {
			emailBody := fmt.Sprintf(
				"<h1>Exam Reminder</h1><p>Hi %s,</p><p>Your exam <b>%s</b> (%s) is scheduled for %s. Duration: %d minutes.</p><p>Good luck!</p>",
				recipient.FullName,
				exam.Title,
				exam.Subject,
				exam.ExamDate.Format("Monday, 02 Jan 2006 at 3:04 PM"),
				exam.DurationMinutes,
			)
			go notifications.SendEmail(recipient.FullName, *recipient.Email, emailSubject, emailBody)
		}

		now := time.Now()
		exam.AppNotificationSent = true
		exam.AppNotificationSentAt = &now
		database.DB.Save(&exam)
	}
}
