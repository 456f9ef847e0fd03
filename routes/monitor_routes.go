package routes

import (
	"github.com/classmatebd/classmate_backend/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MonitorRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Use("/ws/exams/:id/monitor", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/exams/:id/monitor", websocket.New(handlers.ServeExamMonitor))
}
