package database

import (
	"fmt"
	"log"

	config "github.com/classmatebd/classmate_backend/configs"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
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
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminMobile := config.Config("ADMIN_MOBILE_NUMBER")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("mobile_number = ?", adminMobile).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		ID:           uuid.New(),
		FullName:     config.Config("ADMIN_FULL_NAME"),
		MobileNumber: adminMobile,
		Password:     string(hashedPassword),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedGrades inserts any missing letter-grade rows. Result grading
// tolerates an empty table, but a seeded one is the expected state.
func SeedGrades() {
	for _, label := range models.GradeLabels {
		var count int64
		if err := DB.Model(&models.Grade{}).Where("grade = ?", label).Count(&count).Error; err != nil {
			log.Fatalf("🔥 Failed to check grade %s: %v", label, err)
			return
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&models.Grade{ID: uuid.New(), Grade: label}).Error; err != nil {
			log.Fatalf("🔥 Failed to seed grade %s: %v", label, err)
			return
		}
	}
	log.Println("✅ Grade scale seeded successfully")
}
