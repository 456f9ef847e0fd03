package selectors

import (
	"errors"

	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetSessionByPublicID fetches one session by its ESS identifier with
// the exam loaded, nil when absent.
func GetSessionByPublicID(db *gorm.DB, sessionID string) (*models.ExamSession, error) {
	var session models.ExamSession
	err := db.Preload("Exam").Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionWithAnswers additionally loads the answers with their
// questions and selections, ordered by question order.
func GetSessionWithAnswers(db *gorm.DB, sessionID string) (*models.ExamSession, error) {
	var session models.ExamSession
	err := db.Preload("Exam").
		Preload("Answers.Question").
		Preload("Answers.SelectedOption").
		Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListExamSessions returns every session on an exam, newest first.
// Academy monitoring and the watchdog use this.
func ListExamSessions(db *gorm.DB, examID uuid.UUID, status string) ([]models.ExamSession, error) {
	query := db.Preload("Student").Preload("Student.User").
		Where("exam_id = ?", examID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.ExamSession
	err := query.Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

// UngradedAnswers lists the subjective answers on a session still
// waiting for a grader, in question order.
func UngradedAnswers(db *gorm.DB, sessionID uuid.UUID) ([]models.StudentAnswer, error) {
	var answers []models.StudentAnswer
	err := db.Preload("Question").
		Joins("JOIN questions ON questions.id = student_answers.question_id").
		Where("student_answers.session_id = ? AND questions.question_type IN ? AND student_answers.is_graded = ?",
			sessionID, []string{models.QuestionTypeShortAnswer, models.QuestionTypeEssay}, false).
		Order("questions.question_order").
		Find(&answers).Error
	return answers, err
}

// GetAnswerByID fetches one answer with its question, nil when absent.
func GetAnswerByID(db *gorm.DB, answerID uuid.UUID) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	err := db.Preload("Question").Preload("SelectedOption").
		Where("id = ?", answerID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
