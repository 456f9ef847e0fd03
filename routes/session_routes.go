package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func SessionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/exams/:id/sessions/start", middleware.Protected(), middleware.StudentRequired(), handlers.StartExamSession)

	sessions := api.Group("/sessions", middleware.Protected())
	sessions.Get("/:id", handlers.GetSession)
	sessions.Put("/:id/activity", handlers.RecordSessionActivity)
	sessions.Put("/:id/submit", handlers.SubmitExamSession)
	sessions.Post("/:id/answers", handlers.SubmitAnswer)

	sessions.Put("/:id/extend", middleware.AcademyRequired(), handlers.ExtendSessionTime)
	sessions.Put("/:id/status", middleware.AcademyRequired(), handlers.ForceSessionStatus)
	sessions.Get("/:id/ungraded-answers", middleware.AcademyRequired(), handlers.ListUngradedAnswers)
	sessions.Post("/:id/result", middleware.AcademyRequired(), handlers.ProcessSessionResult)

	answers := api.Group("/answers", middleware.Protected(), middleware.AcademyRequired())
	answers.Put("/:id/grade", handlers.GradeAnswer)
}
