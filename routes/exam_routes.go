package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func ExamRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	exams := api.Group("/exams", middleware.Protected())
	exams.Get("", handlers.ListExams)
	exams.Get("/:id", handlers.GetExam)

	manage := exams.Group("", middleware.AcademyRequired())
	manage.Post("", handlers.CreateExam)
	manage.Put("/:id", handlers.UpdateExam)
	manage.Delete("/:id", handlers.DeleteExam)
	manage.Put("/:id/publish", handlers.PublishExam)
	manage.Put("/:id/publish-results", handlers.PublishExamResults)
	manage.Get("/:id/sessions", handlers.ListExamSessions)

	manage.Post("/:id/questions", handlers.AddExamQuestion)
	manage.Post("/:id/questions/from-bank", handlers.CopyQuestionFromBank)
	manage.Put("/:id/questions/:questionId", handlers.UpdateExamQuestion)
	manage.Delete("/:id/questions/:questionId", handlers.DeleteExamQuestion)
}
