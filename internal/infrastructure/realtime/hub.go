package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

var ErrForeignRoom = errors.New("room belongs to another company")

// Frame is the wire shape of both inbound and outbound messages.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks dashboard connections and the company rooms they joined.
// A room is named after the company id it serves.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	rooms        map[string]map[string]*Connection // companyID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> joined rooms
	logger       *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
		logger:       logger.Named("realtime"),
	}
}

func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.ID] = conn
	h.sessionRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()
}

func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// Join adds conn to a room. Connections may only join their own company's room.
func (h *Hub) Join(room string, conn *Connection) error {
	if room != conn.CompanyID {
		return ErrForeignRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn.ID]; !ok {
		return ErrConnectionClosed
	}

	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		h.rooms[room] = members
	}
	members[conn.ID] = conn
	h.sessionRooms[conn.ID][room] = struct{}{}
	return nil
}

func (h *Hub) Leave(room string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(room, conn.ID)
	h.mu.Unlock()
}

// Broadcast writes payload to every member of room and returns the delivery count.
func (h *Hub) Broadcast(room string, payload []byte) int {
	h.mu.RLock()
	members := make([]*Connection, 0, len(h.rooms[room]))
	for _, conn := range h.rooms[room] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Deliver sends a domain event to the room of the company it belongs to.
func (h *Hub) Deliver(_ context.Context, event entities.Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", string(event.Type)), zap.Error(err))
		return
	}
	payload, err := json.Marshal(Frame{Event: string(event.Type), Data: data})
	if err != nil {
		h.logger.Error("Failed to encode frame", zap.String("event", string(event.Type)), zap.Error(err))
		return
	}

	n := h.Broadcast(event.CompanyID, payload)
	h.logger.Debug("Event delivered",
		zap.String("event", string(event.Type)),
		zap.String("company_id", event.CompanyID),
		zap.Int("connections", n))
}

func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "server shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)

	for room := range h.sessionRooms[sessionID] {
		h.leaveLocked(room, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(room, sessionID string) {
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if joined, ok := h.sessionRooms[sessionID]; ok {
		delete(joined, room)
	}
}
