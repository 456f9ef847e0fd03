package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func StudentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	students := api.Group("/students", middleware.Protected(), middleware.AcademyRequired())
	students.Post("", handlers.CreateStudent)
	students.Get("", handlers.ListStudents)
	students.Put("/:id", handlers.UpdateStudent)

	enrollments := api.Group("/enrollments", middleware.Protected(), middleware.AcademyRequired())
	enrollments.Post("", handlers.EnrollStudent)
	enrollments.Put("/:id/complete", handlers.CompleteEnrollment)
	enrollments.Put("/:id/deactivate", handlers.DeactivateEnrollment)
}
