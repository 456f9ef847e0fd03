package selectors

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
	return db
}

var testMobileSeq int

func nextTestMobile() string {
	testMobileSeq++
	return fmt.Sprintf("0180000%04d", testMobileSeq)
}

func createUser(t *testing.T, db *gorm.DB, role string) *models.User {
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
		t.Fatalf("createUser: %v", err)
	}
	return &user
}

// tenant bundles one academy with its batch and an actor acting as it.
type tenant struct {
	academy *models.Academy
	batch   *models.Batch
	actor   *models.Actor
}

func createTenant(t *testing.T, db *gorm.DB) *tenant {
	t.Helper()
	owner := createUser(t, db, models.RoleAcademy)
	academy := models.Academy{ID: uuid.New(), UserID: owner.ID, Name: "Academy " + owner.MobileNumber, IsActive: true}
	if err := db.Create(&academy).Error; err != nil {
		t.Fatalf("createTenant academy: %v", err)
	}
	course := models.Course{ID: uuid.New(), AcademyID: academy.ID, Name: "Physics", Subject: "physics", IsActive: true}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("createTenant course: %v", err)
	}
	batch := models.Batch{ID: uuid.New(), CourseID: course.ID, Name: "Batch " + owner.MobileNumber, StartDate: time.Now(), Capacity: 30, IsActive: true}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("createTenant batch: %v", err)
	}
	return &tenant{
		academy: &academy,
		batch:   &batch,
		actor:   &models.Actor{User: owner, Role: models.RoleAcademy, Academy: &academy},
	}
}

func adminActor(t *testing.T, db *gorm.DB) *models.Actor {
	t.Helper()
	user := createUser(t, db, models.RoleAdmin)
	return &models.Actor{User: user, Role: models.RoleAdmin}
}

func studentActor(t *testing.T, db *gorm.DB) (*models.Student, *models.Actor) {
	t.Helper()
	user := createUser(t, db, models.RoleStudent)
	student := models.Student{ID: uuid.New(), UserID: user.ID, IsActive: true}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("studentActor: %v", err)
	}
	return &student, &models.Actor{User: user, Role: models.RoleStudent, Student: &student}
}

func enrollStudent(t *testing.T, db *gorm.DB, student *models.Student, batch *models.Batch) *models.BatchEnrollment {
	t.Helper()
	enrollment := models.BatchEnrollment{
		ID:             uuid.New(),
		StudentID:      student.ID,
		BatchID:        batch.ID,
		EnrollmentDate: time.Now(),
		IsActive:       true,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("enrollStudent: %v", err)
	}
	return &enrollment
}

func createExam(t *testing.T, db *gorm.DB, batch *models.Batch, published bool, examDate time.Time) *models.Exam {
	t.Helper()
	exam := models.NewExam(batch.ID)
	exam.Subject = "physics"
	exam.Title = "Exam " + exam.ExamID
	exam.ExamDate = examDate
	exam.DurationMinutes = 60
	exam.TotalMarks = 100
	exam.PassMarks = 40
	exam.ExamType = models.ExamTypeOnline
	exam.IsPublished = published
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("createExam: %v", err)
	}
	return &exam
}

func createResult(t *testing.T, db *gorm.DB, exam *models.Exam, student *models.Student, enrollment *models.BatchEnrollment, obtained float64, passed bool) *models.ExamResult {
	t.Helper()
	result := models.NewExamResult(exam.ID, student.ID, enrollment.ID)
	result.ObtainedMarks = obtained
	result.IsPassed = passed
	if err := db.Create(&result).Error; err != nil {
		t.Fatalf("createResult: %v", err)
	}
	return &result
}

func createSession(t *testing.T, db *gorm.DB, exam *models.Exam, student *models.Student, enrollment *models.BatchEnrollment, status string) *models.ExamSession {
	t.Helper()
	session := models.NewExamSession(exam.ID, student.ID, enrollment.ID)
	session.Status = status
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("createSession: %v", err)
	}
	return &session
}

func createQuestion(t *testing.T, db *gorm.DB, exam *models.Exam, questionType string, order int, marks float64) *models.Question {
	t.Helper()
	question := models.NewQuestion(exam.ID)
	question.QuestionText = fmt.Sprintf("Question %d", order)
	question.QuestionType = questionType
	question.Marks = marks
	question.QuestionOrder = order
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("createQuestion: %v", err)
	}
	return &question
}

func createTextAnswer(t *testing.T, db *gorm.DB, session *models.ExamSession, question *models.Question, graded bool) *models.StudentAnswer {
	t.Helper()
	answer := models.NewStudentAnswer(session.ID, question.ID)
	answer.TextAnswer = "written response"
	answer.IsGraded = graded
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("createTextAnswer: %v", err)
	}
	return &answer
}
