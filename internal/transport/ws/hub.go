package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgProgressUpdate      MessageType = "progress_update"
	MsgSubmissionFinalized MessageType = "submission_finalized"
	MsgError               MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections watching assessments
type Hub struct {
	// assessmentID -> connections
	watcherConns map[string]map[*Connection]bool

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection watching one assessment
type Connection struct {
	AssessmentID string
	Send         chan []byte
	Hub          *Hub
}

// BroadcastMessage is a message to broadcast to an assessment's watchers
type BroadcastMessage struct {
	AssessmentID string
	Message      *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watcherConns: make(map[string]map[*Connection]bool),
		register:     make(chan *Connection),
		unregister:   make(chan *Connection),
		broadcast:    make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watcherConns[conn.AssessmentID] == nil {
				h.watcherConns[conn.AssessmentID] = make(map[*Connection]bool)
			}
			h.watcherConns[conn.AssessmentID][conn] = true
			log.Printf("Watcher connected to assessment %s", conn.AssessmentID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if watchers, ok := h.watcherConns[conn.AssessmentID]; ok {
				if watchers[conn] {
					delete(watchers, conn)
					close(conn.Send)
					log.Printf("Watcher disconnected from assessment %s", conn.AssessmentID)
				}
				if len(watchers) == 0 {
					delete(h.watcherConns, conn.AssessmentID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			if watchers, ok := h.watcherConns[msg.AssessmentID]; ok {
				for conn := range watchers {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToWatchers sends a message to everyone watching an assessment
// (implements service.Broadcaster)
func (h *Hub) BroadcastToWatchers(assessmentID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		AssessmentID: assessmentID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
