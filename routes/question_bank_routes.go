package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func QuestionBankRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	bank := api.Group("/question-bank", middleware.Protected(), middleware.AcademyRequired())

	bank.Get("/categories", handlers.ListCategories)
	bank.Post("/categories", handlers.CreateCategory)
	bank.Put("/categories/:id", handlers.UpdateCategory)

	bank.Get("/questions", handlers.ListBankQuestions)
	bank.Post("/questions", handlers.CreateBankQuestion)
	bank.Put("/questions/:id/approve", middleware.AdminRequired(), handlers.ApproveBankQuestion)
	bank.Put("/questions/:id/deactivate", middleware.AdminRequired(), handlers.DeactivateBankQuestion)
}
