package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/repository/connection"
)

type connInfo struct {
	roomID  string
	userID  string
	writeMu *sync.Mutex
}

// repo tracks which websocket connection belongs to which (room, user).
// One user may hold several connections (multiple tabs), each registered
// separately.
type repo struct {
	conns map[*websocket.Conn]connInfo
	rooms map[string]map[*websocket.Conn]struct{}
	mu    sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		conns: make(map[*websocket.Conn]connInfo),
		rooms: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (r *repo) Add(conn *websocket.Conn, roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn]; ok {
		return connection.ErrAlreadyExists
	}

	r.conns[conn] = connInfo{roomID: roomID, userID: userID, writeMu: &sync.Mutex{}}
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[*websocket.Conn]struct{})
	}
	r.rooms[roomID][conn] = struct{}{}

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.conns[conn]
	if !ok {
		return connection.ErrNotFound
	}
	conn.Close()

	delete(r.conns, conn)
	delete(r.rooms[info.roomID], conn)
	if len(r.rooms[info.roomID]) == 0 {
		delete(r.rooms, info.roomID)
	}

	return nil
}

func (r *repo) GetUserID(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.conns[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return info.userID, nil
}

func (r *repo) GetRoomConns(roomID string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(r.rooms[roomID]))
	for conn := range r.rooms[roomID] {
		conns = append(conns, conn)
	}

	return conns
}

// SendRoomJSON writes v to every connection in the room. Writes are
// serialized per connection; gorilla/websocket allows a single writer at a
// time. Returns the connections whose write failed.
func (r *repo) SendRoomJSON(roomID string, v any) []*websocket.Conn {
	type target struct {
		conn    *websocket.Conn
		writeMu *sync.Mutex
	}

	r.mu.RLock()
	targets := make([]target, 0, len(r.rooms[roomID]))
	for conn := range r.rooms[roomID] {
		targets = append(targets, target{conn: conn, writeMu: r.conns[conn].writeMu})
	}
	r.mu.RUnlock()

	var failed []*websocket.Conn
	for _, t := range targets {
		t.writeMu.Lock()
		err := t.conn.WriteJSON(v)
		t.writeMu.Unlock()

		if err != nil {
			failed = append(failed, t.conn)
		}
	}

	return failed
}
