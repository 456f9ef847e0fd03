package handlers

import (
	"log"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/middleware"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// respondError is the single boundary between the error taxonomy and
// HTTP. Domain errors surface their message with the mapped status;
// anything else is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	if apperrors.IsDomain(err) {
		return c.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}

// currentActor resolves the JWT caller into an actor with their
// role-bound profile attached.
func currentActor(c *fiber.Ctx) (*models.Actor, error) {
	userID, err := middleware.TokenUserID(c)
	if err != nil {
		return nil, err
	}
	return services.ResolveActor(database.DB, userID)
}
