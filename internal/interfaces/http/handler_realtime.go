package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"project_amharicAI/internal/infrastructure/realtime"
)

const (
	socketReadLimit = 4096
	pongWait        = 60 * time.Second
)

// Socket upgrades to a websocket and serves join-room / leave-room frames.
// Server events are written by the hub.
func (h *Handler) Socket(c *gin.Context) {
	company := currentCompany(c)
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already answered the client.
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConnection(company.ID, ws)
	h.hub.Attach(conn)
	h.logger.Info("Client connected", zap.String("session_id", conn.ID), zap.String("company_id", company.ID))
	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "")
		h.logger.Info("Client disconnected", zap.String("session_id", conn.ID))
	}()

	ws.SetReadLimit(socketReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Websocket read failed", zap.String("session_id", conn.ID), zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		var frame realtime.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.sendFrame(conn, "error", "malformed frame")
			continue
		}
		h.handleFrame(conn, frame)
	}
}

func (h *Handler) handleFrame(conn *realtime.Connection, frame realtime.Frame) {
	if frame.Event != "join-room" && frame.Event != "leave-room" {
		h.sendFrame(conn, "error", "unknown event")
		return
	}
	var room string
	if err := json.Unmarshal(frame.Data, &room); err != nil {
		h.sendFrame(conn, "error", "room must be a string")
		return
	}

	switch frame.Event {
	case "join-room":
		if err := h.hub.Join(room, conn); err != nil {
			if errors.Is(err, realtime.ErrForeignRoom) {
				h.logger.Warn("Rejected foreign room join", zap.String("session_id", conn.ID), zap.String("room", room))
			}
			h.sendFrame(conn, "error", err.Error())
			return
		}
		h.logger.Debug("Client joined room", zap.String("session_id", conn.ID), zap.String("room", room))
		h.sendFrame(conn, "joined-room", room)
	case "leave-room":
		h.hub.Leave(room, conn)
	}
}

func (h *Handler) sendFrame(conn *realtime.Connection, event, message string) {
	data, _ := json.Marshal(message)
	payload, err := json.Marshal(realtime.Frame{Event: event, Data: data})
	if err != nil {
		return
	}
	_ = conn.Send(payload)
}
