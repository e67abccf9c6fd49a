package websocket

import (
	"encoding/json"
	"sync"

	"vitalwatch/models"

	"github.com/sirupsen/logrus"
)

// WSMessage is the envelope pushed to dashboard clients.
type WSMessage struct {
	Type    string      `json:"type"` // alert_created, alert_escalated
	Payload interface{} `json:"payload"`
}

// Hub keeps dashboard connections grouped by the subject they watch and
// pushes alert facts to them. Broadcast is best-effort: a slow client is
// dropped, never waited on.
type Hub struct {
	clients    map[string]map[*Client]bool // subjectID -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan subjectMessage

	mu sync.RWMutex
}

type subjectMessage struct {
	subjectID string
	data      []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan subjectMessage, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.subjectID] == nil {
				h.clients[client.subjectID] = make(map[*Client]bool)
			}
			h.clients[client.subjectID][client] = true
			h.mu.Unlock()
			logrus.Debugf("Dashboard client connected for subject %s", client.subjectID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.subjectID]; ok {
				if clients[client] {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.subjectID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.subjectID] {
				select {
				case client.send <- message.data:
				default:
					// Client cannot keep up; let its write pump die.
					close(client.send)
					delete(h.clients[message.subjectID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.send(alert.SubjectID, WSMessage{Type: "alert_created", Payload: alert})
}

func (h *Hub) BroadcastEscalation(event models.EscalationEvent) {
	h.send(event.SubjectID, WSMessage{Type: "alert_escalated", Payload: event})
}

func (h *Hub) send(subjectID string, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Failed to encode websocket message: %v", err)
		return
	}

	select {
	case h.broadcast <- subjectMessage{subjectID: subjectID, data: data}:
	default:
		logrus.Warn("Websocket broadcast queue full, dropping message")
	}
}
