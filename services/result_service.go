package services

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var subjectiveTypes = []string{models.QuestionTypeShortAnswer, models.QuestionTypeEssay}
var objectiveTypes = []string{models.QuestionTypeMCQ, models.QuestionTypeTrueFalse}

func getResult(tx *gorm.DB, resultID string) (*models.ExamResult, error) {
	var result models.ExamResult
	err := tx.Preload("Exam").Where("result_id = ?", resultID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("result %s not found", resultID)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// saveResultScored recomputes every field derived from the two sub-totals
// and persists the row. All result writes funnel through here so obtained
// marks, the pass flag and the grade can never drift apart.
func saveResultScored(tx *gorm.DB, result *models.ExamResult, exam *models.Exam) error {
	result.ObtainedMarks = result.AutoGradedMarks + result.ManualGradedMarks
	result.IsPassed = result.ObtainedMarks >= exam.PassMarks

	grade, err := GradeForScore(tx, result.ObtainedMarks, exam.TotalMarks)
	if err != nil {
		return err
	}
	if grade != nil {
		result.GradeID = &grade.ID
		result.Grade = grade
	} else {
		result.GradeID = nil
		result.Grade = nil
	}

	return tx.Save(result).Error
}

func sumGradedAwarded(tx *gorm.DB, sessionID uuid.UUID) (float64, error) {
	var total float64
	err := tx.Model(&models.StudentAnswer{}).
		Where("session_id = ? AND is_graded = ?", sessionID, true).
		Select("COALESCE(SUM(awarded_marks), 0)").
		Scan(&total).Error
	return total, err
}

func sumObjectiveCorrect(tx *gorm.DB, sessionID uuid.UUID) (float64, error) {
	var total float64
	err := tx.Model(&models.StudentAnswer{}).
		Joins("JOIN questions ON questions.id = student_answers.question_id").
		Where("student_answers.session_id = ? AND questions.question_type IN ? AND student_answers.is_correct = ?",
			sessionID, objectiveTypes, true).
		Select("COALESCE(SUM(student_answers.awarded_marks), 0)").
		Scan(&total).Error
	return total, err
}

func sumSubjectiveGraded(tx *gorm.DB, sessionID uuid.UUID) (float64, error) {
	var total float64
	err := tx.Model(&models.StudentAnswer{}).
		Joins("JOIN questions ON questions.id = student_answers.question_id").
		Where("student_answers.session_id = ? AND questions.question_type IN ? AND student_answers.is_graded = ?",
			sessionID, subjectiveTypes, true).
		Select("COALESCE(SUM(student_answers.awarded_marks), 0)").
		Scan(&total).Error
	return total, err
}

func countUngradedSubjective(tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&models.StudentAnswer{}).
		Joins("JOIN questions ON questions.id = student_answers.question_id").
		Where("student_answers.session_id = ? AND questions.question_type IN ? AND student_answers.is_graded = ?",
			sessionID, subjectiveTypes, false).
		Count(&count).Error
	return count, err
}

// ProcessResult turns a closed session into its result row. Auto marks
// are summed over whatever is graded at call time; a second call returns
// the existing row untouched, with the 1:1 session constraint as the
// backstop for concurrent processing.
func ProcessResult(tx *gorm.DB, sessionID string) (*models.ExamResult, error) {
	session, err := getSession(tx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionStatusSubmitted && session.Status != models.SessionStatusTimeout {
		return nil, apperrors.InvalidState("session must be submitted before processing")
	}

	var existing models.ExamResult
	err = tx.Preload("Exam").Preload("Grade").Where("session_id = ?", session.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	autoMarks, err := sumGradedAwarded(tx, session.ID)
	if err != nil {
		return nil, err
	}

	var totalQuestions int64
	if err := tx.Model(&models.Question{}).Where("exam_id = ?", session.ExamID).Count(&totalQuestions).Error; err != nil {
		return nil, err
	}
	if totalQuestions == 0 {
		if err := tx.Model(&models.StudentAnswer{}).Where("session_id = ?", session.ID).Count(&totalQuestions).Error; err != nil {
			return nil, err
		}
	}

	var attempted int64
	err = tx.Model(&models.StudentAnswer{}).
		Where("session_id = ? AND (selected_option_id IS NOT NULL OR TRIM(text_answer) <> '')", session.ID).
		Count(&attempted).Error
	if err != nil {
		return nil, err
	}

	var correct, wrong int64
	if err := tx.Model(&models.StudentAnswer{}).Where("session_id = ? AND is_correct = ?", session.ID, true).Count(&correct).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.StudentAnswer{}).Where("session_id = ? AND is_correct = ?", session.ID, false).Count(&wrong).Error; err != nil {
		return nil, err
	}

	ungraded, err := countUngradedSubjective(tx, session.ID)
	if err != nil {
		return nil, err
	}

	result := models.NewExamResult(session.ExamID, session.StudentID, session.EnrollmentID)
	result.SessionID = &session.ID
	result.AutoGradedMarks = autoMarks
	result.TotalQuestions = int(totalQuestions)
	result.TotalQuestionsAttempted = int(attempted)
	result.CorrectAnswers = int(correct)
	result.WrongAnswers = int(wrong)
	result.IsAutoProcessed = true
	result.IsManualGradingComplete = ungraded == 0

	if err := saveResultScored(tx, &result, &session.Exam); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.ExamResult
			if ferr := tx.Preload("Exam").Preload("Grade").Where("session_id = ?", session.ID).First(&winner).Error; ferr == nil {
				return &winner, nil
			}
			return nil, apperrors.Duplicate("result already exists for this exam and student")
		}
		return nil, err
	}

	result.Exam = session.Exam
	return &result, nil
}

// RecalculateResult re-derives both sub-totals from the current answer
// set. Run it after manual grading changes awarded marks.
func RecalculateResult(tx *gorm.DB, resultID string) (*models.ExamResult, error) {
	result, err := getResult(tx, resultID)
	if err != nil {
		return nil, err
	}
	if !result.IsOnline() {
		return nil, apperrors.InvalidState("result %s was not produced from an online session", resultID)
	}

	autoMarks, err := sumObjectiveCorrect(tx, *result.SessionID)
	if err != nil {
		return nil, err
	}
	manualMarks, err := sumSubjectiveGraded(tx, *result.SessionID)
	if err != nil {
		return nil, err
	}

	result.AutoGradedMarks = autoMarks
	result.ManualGradedMarks = manualMarks

	if err := saveResultScored(tx, result, &result.Exam); err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileManualGrading flips the session's result to grading-complete
// once no ungraded subjective answer remains. Nothing happens while any
// remain, or when the session has not been processed yet.
func reconcileManualGrading(tx *gorm.DB, sessionID uuid.UUID) error {
	ungraded, err := countUngradedSubjective(tx, sessionID)
	if err != nil {
		return err
	}
	if ungraded > 0 {
		return nil
	}

	var result models.ExamResult
	err = tx.Preload("Exam").Where("session_id = ?", sessionID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	manualMarks, err := sumSubjectiveGraded(tx, sessionID)
	if err != nil {
		return err
	}

	result.ManualGradedMarks = manualMarks
	result.IsManualGradingComplete = true

	return saveResultScored(tx, &result, &result.Exam)
}

// CompleteManualGrading is the explicit staff confirmation that grading
// is finished. It refuses while ungraded subjective answers remain, so
// the completion flag can never lie about outstanding work.
func CompleteManualGrading(tx *gorm.DB, resultID string, actor *models.User) (*models.ExamResult, error) {
	result, err := getResult(tx, resultID)
	if err != nil {
		return nil, err
	}
	if !result.IsOnline() {
		return nil, apperrors.InvalidState("result %s was not produced from an online session", resultID)
	}

	ungraded, err := countUngradedSubjective(tx, *result.SessionID)
	if err != nil {
		return nil, err
	}
	if ungraded > 0 {
		return nil, apperrors.InvalidState("%d subjective answers are still ungraded", ungraded)
	}

	manualMarks, err := sumSubjectiveGraded(tx, *result.SessionID)
	if err != nil {
		return nil, err
	}

	result.ManualGradedMarks = manualMarks
	result.IsManualGradingComplete = true
	result.LastModifiedByID = &actor.ID

	if err := saveResultScored(tx, result, &result.Exam); err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyResult stamps a result as checked by staff.
func VerifyResult(tx *gorm.DB, resultID string, actor *models.User) (*models.ExamResult, error) {
	result, err := getResult(tx, resultID)
	if err != nil {
		return nil, err
	}

	if result.IsVerified {
		return result, nil
	}

	now := time.Now()
	result.IsVerified = true
	result.VerifiedByID = &actor.ID
	result.VerifiedAt = &now

	if err := tx.Save(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// EnterPaperResult records a manually entered result for a paper-based
// exam. Online results come from ProcessResult, never from here.
func EnterPaperResult(tx *gorm.DB, examID string, studentID uuid.UUID, obtainedMarks float64, wasPresent bool, remarks string, enteredBy *models.User) (*models.ExamResult, error) {
	var exam models.Exam
	err := tx.Where("exam_id = ? AND is_active = ?", examID, true).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("exam %s not found", examID)
	}
	if err != nil {
		return nil, err
	}

	if exam.IsOnline() {
		return nil, apperrors.InvalidState("online exam results are processed from sessions")
	}
	if obtainedMarks < 0 || obtainedMarks > exam.TotalMarks {
		return nil, apperrors.InvalidAnswer("obtained marks must be between 0 and %.2f", exam.TotalMarks)
	}

	enrollment, err := ActiveEnrollment(tx, studentID, exam.BatchID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperrors.NotEligible("student is not enrolled in this exam batch")
	}

	result := models.NewExamResult(exam.ID, studentID, enrollment.ID)
	result.AutoGradedMarks = 0
	result.ManualGradedMarks = obtainedMarks
	result.WasPresent = wasPresent
	result.Remarks = remarks
	result.EnteredByID = &enteredBy.ID

	if err := saveResultScored(tx, &result, &exam); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("result already exists for this exam and student")
		}
		return nil, err
	}

	result.Exam = exam
	return &result, nil
}
