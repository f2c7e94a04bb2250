package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type WSRouter struct {
	routes map[string]HandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// ServeConn reads messages from conn until it fails and dispatches each one
// to the handler registered for its type. The handler runs on the read
// goroutine, so a connection's messages are processed in order.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			conn.WriteJSON(map[string]string{"error": err.Error()})
		}
	}
}
