package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func AcademyRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	academies := api.Group("/academies", middleware.Protected())
	academies.Post("", middleware.AdminRequired(), handlers.CreateAcademy)
	academies.Get("", handlers.ListAcademies)
	academies.Put("/:id", handlers.UpdateAcademy)

	courses := api.Group("/courses", middleware.Protected(), middleware.AcademyRequired())
	courses.Post("", handlers.CreateCourse)
	courses.Get("", handlers.ListCourses)
	courses.Put("/:id", handlers.UpdateCourse)

	batches := api.Group("/batches", middleware.Protected(), middleware.AcademyRequired())
	batches.Post("", handlers.CreateBatch)
	batches.Get("", handlers.ListBatches)
	batches.Put("/:id", handlers.UpdateBatch)
	batches.Get("/:id/enrollments", handlers.ListBatchEnrollments)
}
