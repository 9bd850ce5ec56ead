// Package ws pushes real-time clinical alerts to connected staff. Clients are
// grouped into rooms by role and department; critical vital-sign readings are
// broadcast to the patient's department room the moment they are recorded.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// Outbound event types.
const (
	EventNewAlert          = "newAlert"
	EventAlertAcknowledged = "alertAcknowledged"
	EventConnected         = "connected"
)

// Inbound actions.
const (
	ActionJoinDepartment   = "joinDepartment"
	ActionAcknowledgeAlert = "acknowledgeAlert"
)

// RoleRoom and DeptRoom name the rooms a client is placed in.
func RoleRoom(role string) string       { return "role_" + role }
func DeptRoom(department string) string { return "dept_" + department }

// Event is one outbound message.
type Event struct {
	Type      string    `json:"type"`
	Room      string    `json:"room,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a connected client.
type ClientMessage struct {
	Action     string `json:"action"`
	Department string `json:"department,omitempty"`
	AlertID    int    `json:"alertId,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single authenticated connection.
type Client struct {
	Actor auth.Actor
	Rooms []string
	Send  chan []byte
	conn  Conn
}

// Hub tracks clients and their room memberships. All operations are safe for
// concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	all    map[*Client]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client and places it in its initial rooms.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, room := range client.Rooms {
		h.addToRoom(client, room)
	}
}

// Unregister removes a client from every room and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, room := range client.Rooms {
		h.removeFromRoom(client, room)
	}
	delete(h.all, client)
	close(client.Send)
}

// Join adds an already-registered client to an extra room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range client.Rooms {
		if r == room {
			return
		}
	}
	h.addToRoom(client, room)
	client.Rooms = append(client.Rooms, room)
}

func (h *Hub) addToRoom(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ProcessMessage dispatches one inbound client message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case ActionJoinDepartment:
		if msg.Department != "" {
			h.Join(client, DeptRoom(msg.Department))
		}
	case ActionAcknowledgeAlert:
		h.Broadcast(DeptRoom(client.Actor.Department), Event{
			Type:      EventAlertAcknowledged,
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"alertId":        msg.AlertID,
				"acknowledgedBy": client.Actor.ID,
			},
		})
	}
}

// Broadcast sends an event to every client in the room. Clients with a full
// send buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(room string, event Event) {
	event.Room = room
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal websocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal websocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.all {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// PublishAlert implements the alert publisher used by the vitals service:
// a newAlert event fanned out to the patient's department room.
func (h *Hub) PublishAlert(_ context.Context, department string, alert any) {
	h.Broadcast(DeptRoom(department), Event{
		Type:      EventNewAlert,
		Timestamp: time.Now().UTC(),
		Data:      alert,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of clients in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
