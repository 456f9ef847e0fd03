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

type ExamInput struct {
	Subject         string
	Title           string
	Description     string
	ExamDate        time.Time
	DurationMinutes int
	TotalMarks      float64
	PassMarks       float64
	ExamType        string
}

type OptionInput struct {
	OptionText  string
	IsCorrect   bool
	OptionOrder int
	Explanation string
}

type QuestionInput struct {
	QuestionText   string
	QuestionType   string
	Marks          float64
	QuestionOrder  int
	IsRequired     bool
	ExpectedAnswer string
	MarkingScheme  string
	Options        []OptionInput
}

func getExam(tx *gorm.DB, examID string) (*models.Exam, error) {
	var exam models.Exam
	err := tx.Where("exam_id = ? AND is_active = ?", examID, true).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("exam %s not found", examID)
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func validateExamInput(in *ExamInput, creating bool) error {
	if in.ExamType != models.ExamTypePaperBased && in.ExamType != models.ExamTypeOnline {
		return apperrors.InvalidAnswer("exam type must be paper_based or online")
	}
	if in.TotalMarks <= 0 {
		return apperrors.InvalidAnswer("total marks must be positive")
	}
	if in.PassMarks < 0 || in.PassMarks > in.TotalMarks {
		return apperrors.InvalidAnswer("pass marks cannot exceed total marks")
	}
	if in.DurationMinutes <= 0 {
		return apperrors.InvalidAnswer("duration must be positive")
	}
	if creating && in.ExamDate.Before(time.Now()) {
		return apperrors.InvalidAnswer("exam date cannot be in the past")
	}
	return nil
}

// CreateExam schedules an exam for a batch. The (batch, title) unique
// index backstops the pre-check under concurrent creates.
func CreateExam(tx *gorm.DB, batchID uuid.UUID, in ExamInput) (*models.Exam, error) {
	if in.ExamType == "" {
		in.ExamType = models.ExamTypePaperBased
	}
	if err := validateExamInput(&in, true); err != nil {
		return nil, err
	}

	var batch models.Batch
	err := tx.Where("id = ? AND is_active = ?", batchID, true).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("batch not found")
	}
	if err != nil {
		return nil, err
	}

	var clash int64
	err = tx.Model(&models.Exam{}).Where("batch_id = ? AND title = ?", batchID, in.Title).Count(&clash).Error
	if err != nil {
		return nil, err
	}
	if clash > 0 {
		return nil, apperrors.Duplicate("an exam with the same title already exists for this batch")
	}

	exam := models.NewExam(batchID)
	exam.Subject = in.Subject
	exam.Title = in.Title
	exam.Description = in.Description
	exam.ExamDate = in.ExamDate
	exam.DurationMinutes = in.DurationMinutes
	exam.TotalMarks = in.TotalMarks
	exam.PassMarks = in.PassMarks
	exam.ExamType = in.ExamType

	if err := tx.Create(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("an exam with the same title already exists for this batch")
		}
		return nil, err
	}
	return &exam, nil
}

// UpdateExam edits a scheduled exam. Completed exams are frozen.
func UpdateExam(tx *gorm.DB, examID string, in ExamInput) (*models.Exam, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}

	if exam.IsCompleted() {
		return nil, apperrors.InvalidState("cannot update a completed exam")
	}
	if in.ExamType == "" {
		in.ExamType = exam.ExamType
	}
	if err := validateExamInput(&in, false); err != nil {
		return nil, err
	}

	if in.Title != exam.Title {
		var clash int64
		err = tx.Model(&models.Exam{}).
			Where("batch_id = ? AND title = ? AND id <> ?", exam.BatchID, in.Title, exam.ID).
			Count(&clash).Error
		if err != nil {
			return nil, err
		}
		if clash > 0 {
			return nil, apperrors.Duplicate("an exam with the same title already exists for this batch")
		}
	}

	exam.Subject = in.Subject
	exam.Title = in.Title
	exam.Description = in.Description
	exam.ExamDate = in.ExamDate
	exam.DurationMinutes = in.DurationMinutes
	exam.TotalMarks = in.TotalMarks
	exam.PassMarks = in.PassMarks
	exam.ExamType = in.ExamType

	if err := tx.Save(exam).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("an exam with the same title already exists for this batch")
		}
		return nil, err
	}
	return exam, nil
}

// PublishExam opens the exam to enrolled students.
func PublishExam(tx *gorm.DB, examID string) (*models.Exam, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return nil, apperrors.InvalidState("exam is already published")
	}

	exam.IsPublished = true
	if err := tx.Save(exam).Error; err != nil {
		return nil, err
	}
	return exam, nil
}

// PublishExamResults releases results to students. Only allowed once the
// exam date has passed, and only once.
func PublishExamResults(tx *gorm.DB, examID string, actor *models.User) (*models.Exam, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.CanPublishResults() {
		return nil, apperrors.InvalidState("cannot publish results for this exam")
	}

	now := time.Now()
	exam.ResultsPublished = true
	exam.ResultPublishedAt = &now
	exam.PublishedByID = &actor.ID

	if err := tx.Save(exam).Error; err != nil {
		return nil, err
	}
	return exam, nil
}

// ArchiveExam soft-deletes an exam. Refused while results exist; the
// title gets an archive suffix so the (batch, title) slot frees up.
func ArchiveExam(tx *gorm.DB, examID string) (*models.Exam, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}

	var results int64
	if err := tx.Model(&models.ExamResult{}).Where("exam_id = ?", exam.ID).Count(&results).Error; err != nil {
		return nil, err
	}
	if results > 0 {
		return nil, apperrors.InvalidState("cannot archive an exam with existing results")
	}

	exam.IsActive = false
	exam.Title = exam.Title + " - Archived"

	if err := tx.Save(exam).Error; err != nil {
		return nil, err
	}
	return exam, nil
}

func nextQuestionOrder(tx *gorm.DB, examID uuid.UUID) (int, error) {
	var last models.Question
	err := tx.Where("exam_id = ?", examID).Order("question_order DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.QuestionOrder + 1, nil
}

func validateQuestionInput(in *QuestionInput) error {
	if !models.IsObjectiveType(in.QuestionType) && !models.IsSubjectiveType(in.QuestionType) {
		return apperrors.InvalidAnswer("unknown question type %s", in.QuestionType)
	}
	if strings.TrimSpace(in.QuestionText) == "" {
		return apperrors.InvalidAnswer("question text is required")
	}
	if in.Marks <= 0 {
		return apperrors.InvalidAnswer("question marks must be positive")
	}
	if models.IsSubjectiveType(in.QuestionType) && len(in.Options) > 0 {
		return apperrors.InvalidAnswer("options can only be added to mcq or true/false questions")
	}
	return nil
}

// AddQuestion appends a custom question to an online exam, with its
// options when the type is objective. Order defaults to last+1.
func AddQuestion(tx *gorm.DB, examID string, in QuestionInput, createdBy *models.User) (*models.Question, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsOnline() {
		return nil, apperrors.InvalidAnswer("questions can only be added to online exams")
	}
	if err := validateQuestionInput(&in); err != nil {
		return nil, err
	}

	order := in.QuestionOrder
	if order <= 0 {
		order, err = nextQuestionOrder(tx, exam.ID)
		if err != nil {
			return nil, err
		}
	} else {
		var clash int64
		err = tx.Model(&models.Question{}).
			Where("exam_id = ? AND question_order = ?", exam.ID, order).
			Count(&clash).Error
		if err != nil {
			return nil, err
		}
		if clash > 0 {
			return nil, apperrors.Duplicate("a question with order %d already exists in this exam", order)
		}
	}

	question := models.NewQuestion(exam.ID)
	question.QuestionText = in.QuestionText
	question.QuestionType = in.QuestionType
	question.Marks = in.Marks
	question.QuestionOrder = order
	question.IsRequired = in.IsRequired
	question.ExpectedAnswer = in.ExpectedAnswer
	question.MarkingScheme = in.MarkingScheme
	if createdBy != nil {
		question.CreatedByID = &createdBy.ID
	}

	for _, opt := range in.Options {
		question.Options = append(question.Options, models.QuestionOption{
			ID:          uuid.New(),
			QuestionID:  question.ID,
			OptionText:  opt.OptionText,
			IsCorrect:   opt.IsCorrect,
			OptionOrder: opt.OptionOrder,
			Explanation: opt.Explanation,
		})
	}

	if err := tx.Create(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("a question with order %d already exists in this exam", order)
		}
		return nil, err
	}
	return &question, nil
}

// CopyQuestionFromBank snapshots an approved bank question (text, type,
// marks, options) into the exam and bumps the bank usage counter. The
// exam question keeps only a weak reference back to the bank row.
func CopyQuestionFromBank(tx *gorm.DB, examID, bankQuestionID string, marks *float64, questionOrder int, createdBy *models.User) (*models.Question, error) {
	exam, err := getExam(tx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsOnline() {
		return nil, apperrors.InvalidAnswer("questions can only be added to online exams")
	}

	var bank models.BankQuestion
	err = tx.Preload("Options").Where("bank_question_id = ?", bankQuestionID).First(&bank).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("bank question %s not found", bankQuestionID)
	}
	if err != nil {
		return nil, err
	}
	if !bank.IsApproved || !bank.IsActive {
		return nil, apperrors.NotEligible("bank question must be approved and active")
	}

	order := questionOrder
	if order <= 0 {
		order, err = nextQuestionOrder(tx, exam.ID)
		if err != nil {
			return nil, err
		}
	}

	questionMarks := bank.SuggestedMarks
	if marks != nil {
		if *marks <= 0 {
			return nil, apperrors.InvalidAnswer("question marks must be positive")
		}
		questionMarks = *marks
	}

	question := models.NewQuestion(exam.ID)
	question.BankQuestionID = &bank.ID
	question.QuestionText = bank.QuestionText
	question.QuestionType = bank.QuestionType
	question.Marks = questionMarks
	question.QuestionOrder = order
	question.ExpectedAnswer = bank.ExpectedAnswer
	question.MarkingScheme = bank.MarkingScheme
	if createdBy != nil {
		question.CreatedByID = &createdBy.ID
	}

	for _, opt := range bank.Options {
		bankOptionID := opt.ID
		question.Options = append(question.Options, models.QuestionOption{
			ID:           uuid.New(),
			QuestionID:   question.ID,
			BankOptionID: &bankOptionID,
			OptionText:   opt.OptionText,
			IsCorrect:    opt.IsCorrect,
			OptionOrder:  opt.OptionOrder,
			Explanation:  opt.Explanation,
		})
	}

	if err := tx.Create(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Duplicate("a question with order %d already exists in this exam", order)
		}
		return nil, err
	}

	now := time.Now()
	err = tx.Model(&models.BankQuestion{}).Where("id = ?", bank.ID).
		Updates(map[string]interface{}{"usage_count": gorm.Expr("usage_count + 1"), "last_used_at": now}).Error
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// UpdateQuestion edits an exam question in place. A nil field means
// "leave unchanged".
func UpdateQuestion(tx *gorm.DB, questionID uuid.UUID, text *string, marks *float64, questionOrder *int, isRequired *bool) (*models.Question, error) {
	var question models.Question
	err := tx.Where("id = ?", questionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("question not found")
	}
	if err != nil {
		return nil, err
	}

	if text != nil {
		if strings.TrimSpace(*text) == "" {
			return nil, apperrors.InvalidAnswer("question text is required")
		}
		question.QuestionText = *text
	}
	if marks != nil {
		if *marks <= 0 {
			return nil, apperrors.InvalidAnswer("question marks must be positive")
		}
		question.Marks = *marks
	}
	if questionOrder != nil && *questionOrder != question.QuestionOrder {
		var clash int64
		err = tx.Model(&models.Question{}).
			Where("exam_id = ? AND question_order = ? AND id <> ?", question.ExamID, *questionOrder, question.ID).
			Count(&clash).Error
		if err != nil {
			return nil, err
		}
		if clash > 0 {
			return nil, apperrors.Duplicate("a question with order %d already exists in this exam", *questionOrder)
		}
		question.QuestionOrder = *questionOrder
	}
	if isRequired != nil {
		question.IsRequired = *isRequired
	}

	if err := tx.Save(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// DeleteQuestion removes a question and its options. Refused once any
// student has answered it.
func DeleteQuestion(tx *gorm.DB, questionID uuid.UUID) error {
	var question models.Question
	err := tx.Where("id = ?", questionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("question not found")
	}
	if err != nil {
		return err
	}

	var answered int64
	if err := tx.Model(&models.StudentAnswer{}).Where("question_id = ?", question.ID).Count(&answered).Error; err != nil {
		return err
	}
	if answered > 0 {
		return apperrors.InvalidState("cannot delete a question that has answers")
	}

	if err := tx.Where("question_id = ?", question.ID).Delete(&models.QuestionOption{}).Error; err != nil {
		return err
	}
	return tx.Delete(&question).Error
}
