package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected())
	payments.Get("", handlers.ListPayments)

	payments.Post("", middleware.AcademyRequired(), handlers.RecordPayment)
	payments.Put("/:id", middleware.AcademyRequired(), handlers.UpdatePayment)
	payments.Put("/:id/refund", middleware.AcademyRequired(), handlers.RefundPayment)
}
