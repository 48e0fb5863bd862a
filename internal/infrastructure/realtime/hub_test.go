package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

type hubServer struct {
	*httptest.Server
	joined chan struct{}
}

// startHub serves a websocket endpoint that attaches each client to hub
// under the company given in the query string and joins its room.
func startHub(t *testing.T, hub *Hub) *hubServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	joined := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(r.URL.Query().Get("company"), ws)
		hub.Attach(conn)
		defer hub.Detach(conn)
		if err := hub.Join(conn.CompanyID, conn); err != nil {
			return
		}
		joined <- struct{}{}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return &hubServer{Server: srv, joined: joined}
}

func dial(t *testing.T, srv *hubServer, company string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?company=" + company
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	select {
	case <-srv.joined:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not join")
	}
	return ws
}

func TestHubDeliversOnlyToCompanyRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()
	srv := startHub(t, hub)

	a := dial(t, srv, "company-a")
	b := dial(t, srv, "company-b")

	hub.Deliver(context.Background(), entities.Event{
		Type:      entities.EventDocumentDeleted,
		CompanyID: "company-a",
		Data:      entities.DocumentDeletedPayload{ID: "doc-1"},
	})

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := a.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "document-deleted", frame.Event)
	assert.JSONEq(t, `{"id":"doc-1"}`, string(frame.Data))

	_ = b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "company-b must not receive company-a events")
}

func TestJoinRejectsForeignRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := &Connection{ID: "s1", CompanyID: "company-a", close: make(chan struct{}), send: make(chan []byte, 1)}

	assert.ErrorIs(t, hub.Join("company-b", conn), ErrForeignRoom)
	assert.ErrorIs(t, hub.Join("company-a", conn), ErrConnectionClosed, "not attached")
	assert.Equal(t, 0, hub.Broadcast("company-b", []byte("x")))
}
