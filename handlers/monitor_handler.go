package handlers

import (
	"errors"
	"fmt"
	"log"

	config "github.com/classmatebd/classmate_backend/configs"
	"github.com/classmatebd/classmate_backend/database"
	"github.com/classmatebd/classmate_backend/selectors"
	"github.com/classmatebd/classmate_backend/services"
	"github.com/classmatebd/classmate_backend/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ServeExamMonitor upgrades a proctor connection and streams session
// events for one exam. The client authenticates in-band with its JWT
// because browsers cannot set headers on websocket upgrades.
func ServeExamMonitor(c *websocketcontrib.Conn) {
	examID := c.Params("id")

	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("Monitor auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("Monitor auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	userID, err := uuid.Parse(fmt.Sprintf("%v", claims["user_id"]))
	if err != nil {
		log.Printf("Monitor auth failed: invalid user_id: %v", claims["user_id"])
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	actor, err := services.ResolveActor(database.DB, userID)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Unauthorized"})
		c.Close()
		return
	}

	exam, err := selectors.GetExamByPublicID(database.DB, examID)
	if err != nil || exam == nil {
		_ = c.WriteJSON(fiber.Map{"error": "Exam not found"})
		c.Close()
		return
	}
	allowed, err := selectors.CanManageExam(database.DB, actor, exam)
	if err != nil || !allowed {
		_ = c.WriteJSON(fiber.Map{"error": "Forbidden"})
		c.Close()
		return
	}

	log.Printf("Monitor connected for exam %s by user %s", exam.ExamID, userID)
	client := &websocket.Client{ExamID: exam.ExamID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// Monitors only listen; drain until the peer goes away.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("Monitor closed for exam %s: %v", exam.ExamID, err)
			} else {
				log.Printf("Monitor read error for exam %s: %v", exam.ExamID, err)
			}
			return
		}
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
