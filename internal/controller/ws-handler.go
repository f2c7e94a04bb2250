package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/wsrouter"
)

const (
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	router := wsrouter.New()
	router.Handle("ALIVE", c.handleAlive)

	return router
}

// handleAlive is the client heartbeat. The read itself resets the server's
// liveness view of the connection; there is nothing to do.
func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return nil
}

// serveWs upgrades the request and subscribes the connection to the room's
// update fanout. The socket is signal-only downstream; clients re-fetch the
// room snapshot over HTTP when a ROOM_UPDATED message arrives.
func (c controller) serveWs(w http.ResponseWriter, r *http.Request) {
	userID := c.getUserIdFromCtx(r.Context())
	roomID := c.getRoomIdFromCtx(r.Context())

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "err", err)
		return
	}

	if err := c.roomService.Connect(r.Context(), &room.ConnectParams{
		Conn:   conn,
		RoomID: roomID,
		UserID: userID,
	}); err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.pingLoop(ctx, conn)

	if err := c.getWSRouter().ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(r.Context(), "websocket closed", "room_id", roomID, "user_id", userID, "err", err)
	}

	c.roomService.Disconnect(conn)
}

func (c controller) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
