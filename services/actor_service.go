package services

import (
	"errors"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResolveActor loads the caller and the profile their role entitles them
// to act through. An unknown role collapses to "other"; a role whose
// profile row is missing keeps a nil profile so scoping fails closed.
func ResolveActor(db *gorm.DB, userID uuid.UUID) (*models.Actor, error) {
	var user models.User
	err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	actor := &models.Actor{User: &user, Role: user.Role}

	switch user.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		var academy models.Academy
		err := db.Where("user_id = ? AND is_active = ?", user.ID, true).First(&academy).Error
		if err == nil {
			actor.Academy = &academy
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	case models.RoleStudent:
		var student models.Student
		err := db.Where("user_id = ? AND is_active = ?", user.ID, true).First(&student).Error
		if err == nil {
			actor.Student = &student
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	default:
		actor.Role = models.RoleOther
	}

	return actor, nil
}
