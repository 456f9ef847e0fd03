package handlers

import (
	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/classmatebd/classmate_backend/selectors"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/classmatebd/classmate_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordActivityRequest struct {
	TimeSpentMinutes *int `json:"time_spent_minutes" validate:"omitempty,gte=0"`
}

type ExtendTimeRequest struct {
	ExtraMinutes int `json:"extra_minutes" validate:"required,gt=0"`
}

type ForceStatusRequest struct {
	Status           string `json:"status" validate:"required,oneof=timeout interrupted"`
	TimeSpentMinutes *int   `json:"time_spent_minutes" validate:"omitempty,gte=0"`
}

type SubmitAnswerRequest struct {
	QuestionID       string `json:"question_id" validate:"required,uuid4"`
	SelectedOptionID string `json:"selected_option_id" validate:"omitempty,uuid4"`
	TextAnswer       string `json:"text_answer"`
}

type GradeAnswerRequest struct {
	AwardedMarks *float64 `json:"awarded_marks" validate:"required,gte=0"`
	Remarks      string   `json:"remarks"`
}

// requireOwnSession loads a session for the student who owns it. Sessions
// belonging to anyone else read as absent.
func requireOwnSession(c *fiber.Ctx, actor *models.Actor, sessionID string) (*models.ExamSession, error) {
	session, err := selectors.GetSessionByPublicID(database.DB, sessionID)
	if err != nil {
		return nil, respondError(c, err)
	}
	if session == nil || actor.Student == nil || session.StudentID != actor.Student.ID {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	return session, nil
}

// requireManagedSession loads a session for an academy or admin actor who
// manages its exam.
func requireManagedSession(c *fiber.Ctx, actor *models.Actor, sessionID string) (*models.ExamSession, error) {
	session, err := selectors.GetSessionByPublicID(database.DB, sessionID)
	if err != nil {
		return nil, respondError(c, err)
	}
	if session == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, &session.Exam)
	if err != nil {
		return nil, respondError(c, err)
	}
	if !allowed {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return session, nil
}

func broadcastSession(session *models.ExamSession, event, studentName string) {
	go websocket.PublishSessionEvent(session.Exam.ExamID, session.SessionID, event,
		studentName, session.Status, session.TimeSpentMinutes)
}

func StartExamSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if actor.Role != models.RoleStudent || actor.Student == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can start exam sessions"})
	}

	var session *models.ExamSession
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		session, err = services.StartSession(tx, c.Params("id"), actor.Student.ID, c.IP(), c.Get("User-Agent"))
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	broadcastSession(session, "started", actor.User.FullName)
	return c.Status(fiber.StatusCreated).JSON(session)
}

func GetSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	session, err := selectors.GetSessionWithAnswers(database.DB, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAcademy:
		allowed, err := selectors.CanManageExam(database.DB, actor, &session.Exam)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	case models.RoleStudent:
		if actor.Student == nil || session.StudentID != actor.Student.ID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.JSON(fiber.Map{
		"session":           session,
		"remaining_minutes": session.RemainingMinutes(),
	})
}

// RecordSessionActivity is the heartbeat: the client reports cumulative
// time spent, and a session that has used up its allowance comes back
// closed as a timeout.
func RecordSessionActivity(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	owned, err := requireOwnSession(c, actor, c.Params("id"))
	if owned == nil {
		return err
	}

	var req RecordActivityRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	var session *models.ExamSession
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		session, err = services.RecordActivity(tx, owned.SessionID, req.TimeSpentMinutes)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	if session.Status == models.SessionStatusTimeout {
		broadcastSession(session, "timeout", actor.User.FullName)
	}
	return c.JSON(fiber.Map{
		"session":           session,
		"remaining_minutes": session.RemainingMinutes(),
	})
}

func SubmitExamSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	owned, err := requireOwnSession(c, actor, c.Params("id"))
	if owned == nil {
		return err
	}

	var session *models.ExamSession
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		session, err = services.SubmitSession(tx, owned.SessionID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	broadcastSession(session, "submitted", actor.User.FullName)
	return c.JSON(session)
}

func ExtendSessionTime(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedSession(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var req ExtendTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var session *models.ExamSession
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		session, err = services.ExtendSessionTime(tx, managed.SessionID, req.ExtraMinutes, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

func ForceSessionStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedSession(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	var req ForceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var session *models.ExamSession
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		session, err = services.ForceSessionStatus(tx, managed.SessionID, req.Status, req.TimeSpentMinutes)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	broadcastSession(session, session.Status, sessionStudentName(session))
	return c.JSON(session)
}

func SubmitAnswer(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	owned, err := requireOwnSession(c, actor, c.Params("id"))
	if owned == nil {
		return err
	}

	var req SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question_id"})
	}

	payload := services.AnswerPayload{TextAnswer: req.TextAnswer}
	if req.SelectedOptionID != "" {
		optionID, err := uuid.Parse(req.SelectedOptionID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid selected_option_id"})
		}
		payload.SelectedOptionID = &optionID
	}

	var answer *models.StudentAnswer
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		answer, err = services.SaveAnswer(tx, owned.SessionID, questionID, payload)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

func GradeAnswer(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleAcademy {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	answerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid answer id"})
	}

	existing, err := selectors.GetAnswerByID(database.DB, answerID)
	if err != nil {
		return respondError(c, err)
	}
	if existing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Answer not found"})
	}

	var session models.ExamSession
	if err := database.DB.Preload("Exam").Where("id = ?", existing.SessionID).First(&session).Error; err != nil {
		return respondError(c, err)
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, &session.Exam)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req GradeAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var answer *models.StudentAnswer
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		answer, err = services.GradeAnswer(tx, answerID, *req.AwardedMarks, req.Remarks, actor.User)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(answer)
}

// ListUngradedAnswers shows graders what still needs marks on a session.
func ListUngradedAnswers(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	managed, err := requireManagedSession(c, actor, c.Params("id"))
	if managed == nil {
		return err
	}

	answers, err := selectors.UngradedAnswers(database.DB, managed.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": answers, "count": len(answers)})
}

// ListExamSessions is the proctor view: every attempt on an exam with
// the student loaded, optionally filtered by status.
func ListExamSessions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return respondError(c, err)
	}

	exam, err := requireManagedExam(c, actor, c.Params("id"))
	if exam == nil {
		return err
	}

	sessions, err := selectors.ListExamSessions(database.DB, exam.ID, c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": sessions, "count": len(sessions)})
}

func sessionStudentName(session *models.ExamSession) string {
	var student models.Student
	err := database.DB.Preload("User").Where("id = ?", session.StudentID).First(&student).Error
	if err != nil {
		return ""
	}
	return student.User.FullName
}
