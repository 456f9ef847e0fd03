package services

import (
	"errors"
	"testing"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
)

func TestResolveActorAdmin(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, models.RoleAdmin)

	actor, err := ResolveActor(db, admin.ID)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	if actor.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", actor.Role)
	}
	if actor.Academy != nil || actor.Student != nil {
		t.Error("admin carries no profile")
	}
}

func TestResolveActorAcademy(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, models.RoleAcademy)
	academy := models.Academy{ID: uuid.New(), UserID: owner.ID, Name: "Resolve Academy", IsActive: true}
	if err := db.Create(&academy).Error; err != nil {
		t.Fatalf("create academy: %v", err)
	}

	actor, err := ResolveActor(db, owner.ID)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	if actor.Academy == nil || actor.Academy.ID != academy.ID {
		t.Error("academy profile not attached")
	}
}

func TestResolveActorWithoutProfileFailsClosed(t *testing.T) {
	db := newTestDB(t)
	orphan := createTestUser(t, db, models.RoleAcademy)

	actor, err := ResolveActor(db, orphan.ID)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	if actor.Role != models.RoleAcademy {
		t.Errorf("role = %q, want academy", actor.Role)
	}
	if actor.Academy != nil {
		t.Error("missing profile must stay nil so scoping fails closed")
	}
}

func TestResolveActorStudent(t *testing.T) {
	db := newTestDB(t)
	student := createTestStudent(t, db)

	actor, err := ResolveActor(db, student.UserID)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	if actor.Student == nil || actor.Student.ID != student.ID {
		t.Error("student profile not attached")
	}
}

func TestResolveActorUnknownRole(t *testing.T) {
	db := newTestDB(t)
	odd := createTestUser(t, db, "parent")

	actor, err := ResolveActor(db, odd.ID)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	if actor.Role != models.RoleOther {
		t.Errorf("role = %q, want other", actor.Role)
	}
}

func TestResolveActorInactiveUser(t *testing.T) {
	db := newTestDB(t)
	gone := createTestUser(t, db, models.RoleStudent)
	db.Model(gone).Update("is_active", false)

	if _, err := ResolveActor(db, gone.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("inactive user: err = %v, want not found", err)
	}
	if _, err := ResolveActor(db, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown user: err = %v, want not found", err)
	}
}
