package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Client is a proctor connection watching a single exam.
type Client struct {
	ExamID string
	Conn   *websocket.Conn
}

// SessionEvent is pushed to every monitor of the exam when a session
// changes state.
type SessionEvent struct {
	ExamID           string    `json:"exam_id"`
	SessionID        string    `json:"session_id"`
	Event            string    `json:"event"`
	StudentName      string    `json:"student_name,omitempty"`
	Status           string    `json:"status"`
	TimeSpentMinutes int       `json:"time_spent_minutes"`
	OccurredAt       time.Time `json:"occurred_at"`
}

var clients = make(map[string]map[*websocket.Conn]bool)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *SessionEvent)

func init() {
	go RunHub()
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Monitor registered for exam %s", client.ExamID)
			clientsMu.Lock()
			if clients[client.ExamID] == nil {
				clients[client.ExamID] = make(map[*websocket.Conn]bool)
			}
			clients[client.ExamID][client.Conn] = true
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Monitor unregistered for exam %s", client.ExamID)
			clientsMu.Lock()
			if conns, ok := clients[client.ExamID]; ok {
				delete(conns, client.Conn)
				if len(conns) == 0 {
					delete(clients, client.ExamID)
				}
			}
			clientsMu.Unlock()
		case event := <-Broadcast:
			clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(clients[event.ExamID]))
			for conn := range clients[event.ExamID] {
				conns = append(conns, conn)
			}
			clientsMu.RUnlock()

			for _, conn := range conns {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending event to monitor of exam %s: %v", event.ExamID, err)
					conn.Close()
					clientsMu.Lock()
					if set, ok := clients[event.ExamID]; ok {
						delete(set, conn)
						if len(set) == 0 {
							delete(clients, event.ExamID)
						}
					}
					clientsMu.Unlock()
				}
			}
		}
	}
}

// PublishSessionEvent hands an event to the hub. Called from HTTP
// handlers after a session transition commits.
func PublishSessionEvent(examID, sessionID, event, studentName, status string, timeSpentMinutes int) {
	Broadcast <- &SessionEvent{
		ExamID:           examID,
		SessionID:        sessionID,
		Event:            event,
		StudentName:      studentName,
		Status:           status,
		TimeSpentMinutes: timeSpentMinutes,
		OccurredAt:       time.Now(),
	}
}
