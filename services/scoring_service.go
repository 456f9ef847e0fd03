package services

import (
	"errors"
	"strings"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerPayload is the submitted content for one question: a selected
// option for objective types, free text for subjective types.
type AnswerPayload struct {
	SelectedOptionID *uuid.UUID
	TextAnswer       string
}

// ScoreAnswer writes the payload into answer and grades what can be
// graded without a human. selectedOption must be the loaded option row
// when the payload references one, nil otherwise.
//
// Objective types are scored on the spot: correctness comes from the
// option definition and marks are all-or-nothing. Subjective types store
// the text ungraded.
func ScoreAnswer(answer *models.StudentAnswer, question *models.Question, selectedOption *models.QuestionOption, payload AnswerPayload) error {
	switch {
	case question.IsObjective():
		if payload.SelectedOptionID == nil {
			return apperrors.InvalidAnswer("selected option is required for %s questions", question.QuestionType)
		}
		if selectedOption == nil || selectedOption.QuestionID != question.ID {
			return apperrors.InvalidAnswer("selected option does not belong to this question")
		}

		answer.SelectedOptionID = payload.SelectedOptionID
		answer.TextAnswer = ""

		isCorrect := selectedOption.IsCorrect
		awarded := 0.0
		if isCorrect {
			awarded = question.Marks
		}
		answer.IsCorrect = &isCorrect
		answer.AwardedMarks = &awarded
		answer.IsGraded = true

	case question.IsSubjective():
		if strings.TrimSpace(payload.TextAnswer) == "" {
			return apperrors.InvalidAnswer("text answer is required for %s questions", question.QuestionType)
		}

		answer.TextAnswer = payload.TextAnswer
		answer.SelectedOptionID = nil
		answer.IsCorrect = nil
		answer.AwardedMarks = nil
		answer.IsGraded = false

	default:
		return apperrors.InvalidAnswer("unknown question type %q", question.QuestionType)
	}

	return nil
}

// SaveAnswer records a student's answer inside an open session. A second
// submission for the same question overwrites the first; the unique
// (session, question) index backstops concurrent submissions.
func SaveAnswer(tx *gorm.DB, sessionID string, questionID uuid.UUID, payload AnswerPayload) (*models.StudentAnswer, error) {
	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsInProgress() {
		return nil, apperrors.InvalidState("session is not active")
	}

	var question models.Question
	err = tx.Where("id = ? AND exam_id = ?", questionID, session.ExamID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("question not found in this exam")
	}
	if err != nil {
		return nil, err
	}

	var selectedOption *models.QuestionOption
	if payload.SelectedOptionID != nil {
		var option models.QuestionOption
		err = tx.Where("id = ?", *payload.SelectedOptionID).First(&option).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidAnswer("selected option not found")
		}
		if err != nil {
			return nil, err
		}
		selectedOption = &option
	}

	var answer models.StudentAnswer
	err = tx.Where("session_id = ? AND question_id = ?", session.ID, question.ID).First(&answer).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		answer = models.NewStudentAnswer(session.ID, question.ID)
	case err != nil:
		return nil, err
	}

	if err := ScoreAnswer(&answer, &question, selectedOption, payload); err != nil {
		return nil, err
	}

	if err := tx.Save(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("answer already recorded for this question")
		}
		return nil, err
	}

	session.LastActivityAt = time.Now()
	if err := tx.Save(session).Error; err != nil {
		return nil, err
	}

	return &answer, nil
}

// GradeAnswer applies a human grader's marks to a subjective answer and,
// when that was the last ungraded subjective answer of the session, rolls
// the manual total into the session's result.
func GradeAnswer(tx *gorm.DB, answerID uuid.UUID, awardedMarks float64, remarks string, grader *models.User) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	err := tx.Preload("Question").Where("id = ?", answerID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("answer not found")
	}
	if err != nil {
		return nil, err
	}

	if !answer.Question.IsSubjective() {
		return nil, apperrors.InvalidAnswer("this answer type cannot be manually graded")
	}
	if awardedMarks < 0 || awardedMarks > answer.Question.Marks {
		return nil, apperrors.InvalidAnswer("awarded marks must be between 0 and %.2f", answer.Question.Marks)
	}

	now := time.Now()
	answer.AwardedMarks = &awardedMarks
	answer.GraderRemarks = remarks
	answer.IsGraded = true
	answer.GradedByID = &grader.ID
	answer.GradedAt = &now

	if err := tx.Save(&answer).Error; err != nil {
		return nil, err
	}

	if err := reconcileManualGrading(tx, answer.SessionID); err != nil {
		return nil, err
	}

	return &answer, nil
}
