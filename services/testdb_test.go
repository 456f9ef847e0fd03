package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/classmatebd/classmate_backend/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("newTestDB: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Academy{},
		&models.Course{},
		&models.Batch{},
		&models.Student{},
		&models.BatchEnrollment{},
		&models.Grade{},
		&models.Exam{},
		&models.Question{},
		&models.QuestionOption{},
		&models.QuestionBankCategory{},
		&models.BankQuestion{},
		&models.BankQuestionOption{},
		&models.ExamSession{},
		&models.StudentAnswer{},
		&models.ExamResult{},
		&models.StudentPayment{},
	)
	if err != nil {
		t.Fatalf("newTestDB migrate: %v", err)
	}

	for _, label := range models.GradeLabels {
		if err := db.Create(&models.Grade{ID: uuid.New(), Grade: label}).Error; err != nil {
			t.Fatalf("newTestDB seed grade %s: %v", label, err)
		}
	}
	return db
}

var testMobileSeq int

func nextTestMobile() string {
	testMobileSeq++
	return fmt.Sprintf("0170000%04d", testMobileSeq)
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		MobileNumber: nextTestMobile(),
		FullName:     "Test " + role,
		Password:     "not-a-real-hash",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return &user
}

// createTestBatch builds the whole tenant chain down to one batch.
func createTestBatch(t *testing.T, db *gorm.DB) *models.Batch {
	t.Helper()
	owner := createTestUser(t, db, models.RoleAcademy)
	academy := models.Academy{ID: uuid.New(), UserID: owner.ID, Name: "Academy " + owner.MobileNumber, IsActive: true}
	if err := db.Create(&academy).Error; err != nil {
		t.Fatalf("createTestBatch academy: %v", err)
	}
	course := models.Course{ID: uuid.New(), AcademyID: academy.ID, Name: "Physics", Subject: "physics", IsActive: true}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("createTestBatch course: %v", err)
	}
	batch := models.Batch{ID: uuid.New(), CourseID: course.ID, Name: "Batch " + owner.MobileNumber, StartDate: time.Now(), Capacity: 30, IsActive: true}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("createTestBatch batch: %v", err)
	}
	return &batch
}

func createTestStudent(t *testing.T, db *gorm.DB) *models.Student {
	t.Helper()
	user := createTestUser(t, db, models.RoleStudent)
	student := models.Student{ID: uuid.New(), UserID: user.ID, IsActive: true}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("createTestStudent: %v", err)
	}
	return &student
}

func enrollTestStudent(t *testing.T, db *gorm.DB, student *models.Student, batch *models.Batch) *models.BatchEnrollment {
	t.Helper()
	enrollment := models.BatchEnrollment{
		ID:             uuid.New(),
		StudentID:      student.ID,
		BatchID:        batch.ID,
		EnrollmentDate: time.Now(),
		IsActive:       true,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("enrollTestStudent: %v", err)
	}
	return &enrollment
}

func createTestExam(t *testing.T, db *gorm.DB, batch *models.Batch, examType string, durationMinutes int, totalMarks, passMarks float64) *models.Exam {
	t.Helper()
	exam := models.NewExam(batch.ID)
	exam.Subject = "physics"
	exam.Title = "Exam " + exam.ExamID
	exam.ExamDate = time.Now().Add(time.Hour)
	exam.DurationMinutes = durationMinutes
	exam.TotalMarks = totalMarks
	exam.PassMarks = passMarks
	exam.ExamType = examType
	exam.IsPublished = true
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("createTestExam: %v", err)
	}
	return &exam
}

// addTestMCQ attaches an MCQ with one correct and one wrong option.
func addTestMCQ(t *testing.T, db *gorm.DB, exam *models.Exam, order int, marks float64) (*models.Question, *models.QuestionOption, *models.QuestionOption) {
	t.Helper()
	question := models.NewQuestion(exam.ID)
	question.QuestionText = fmt.Sprintf("MCQ %d", order)
	question.QuestionType = models.QuestionTypeMCQ
	question.Marks = marks
	question.QuestionOrder = order
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("addTestMCQ: %v", err)
	}

	correct := models.QuestionOption{ID: uuid.New(), QuestionID: question.ID, OptionText: "right", IsCorrect: true, OptionOrder: 1}
	wrong := models.QuestionOption{ID: uuid.New(), QuestionID: question.ID, OptionText: "wrong", IsCorrect: false, OptionOrder: 2}
	if err := db.Create(&correct).Error; err != nil {
		t.Fatalf("addTestMCQ correct option: %v", err)
	}
	if err := db.Create(&wrong).Error; err != nil {
		t.Fatalf("addTestMCQ wrong option: %v", err)
	}
	return &question, &correct, &wrong
}

func addTestEssay(t *testing.T, db *gorm.DB, exam *models.Exam, order int, marks float64) *models.Question {
	t.Helper()
	question := models.NewQuestion(exam.ID)
	question.QuestionText = fmt.Sprintf("Essay %d", order)
	question.QuestionType = models.QuestionTypeEssay
	question.Marks = marks
	question.QuestionOrder = order
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("addTestEssay: %v", err)
	}
	return &question
}

// startTestSession opens a session directly through the service.
func startTestSession(t *testing.T, db *gorm.DB, exam *models.Exam, student *models.Student) *models.ExamSession {
	t.Helper()
	session, err := StartSession(db, exam.ExamID, student.ID, "127.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("startTestSession: %v", err)
	}
	return session
}

// createTestBankQuestion seeds a reusable MCQ with two options, the first
// correct.
func createTestBankQuestion(t *testing.T, db *gorm.DB, approved bool) *models.BankQuestion {
	t.Helper()
	bank := models.NewBankQuestion()
	bank.Title = "Bank " + bank.BankQuestionID
	bank.QuestionText = "Which law explains inertia?"
	bank.QuestionType = models.QuestionTypeMCQ
	bank.Subject = "physics"
	bank.Difficulty = models.DifficultyMedium
	bank.SuggestedMarks = 5
	bank.IsApproved = approved
	if err := db.Create(&bank).Error; err != nil {
		t.Fatalf("createTestBankQuestion: %v", err)
	}

	options := []models.BankQuestionOption{
		{ID: uuid.New(), BankQuestionID: bank.ID, OptionText: "First law", IsCorrect: true, OptionOrder: 1},
		{ID: uuid.New(), BankQuestionID: bank.ID, OptionText: "Second law", IsCorrect: false, OptionOrder: 2},
	}
	for i := range options {
		if err := db.Create(&options[i]).Error; err != nil {
			t.Fatalf("createTestBankQuestion option: %v", err)
		}
	}
	bank.Options = options
	return &bank
}
