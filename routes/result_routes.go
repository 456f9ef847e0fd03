package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func ResultRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	results := api.Group("/results", middleware.Protected())
	results.Get("", handlers.ListResults)
	results.Get("/:id", handlers.GetResult)
	results.Get("/:id/sheet.pdf", handlers.ResultSheet)

	results.Post("", middleware.AcademyRequired(), handlers.EnterPaperResult)
	results.Put("/:id/recalculate", middleware.AcademyRequired(), handlers.RecalculateResult)
	results.Put("/:id/complete-grading", middleware.AcademyRequired(), handlers.CompleteManualGrading)
	results.Put("/:id/verify", middleware.AcademyRequired(), handlers.VerifyResult)
}
