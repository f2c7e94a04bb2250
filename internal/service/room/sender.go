package room

import (
	"context"
)

type outputMessage struct {
	Type string `json:"type"`
}

// notifyRoomUpdated fans a content-free ROOM_UPDATED signal out to every
// connection subscribed to the room. Clients re-fetch the snapshot on
// receipt, so no payload means no staleness from message ordering. Dead
// connections are evicted; those clients fall back to polling on their own.
func (s *service) notifyRoomUpdated(ctx context.Context, roomID string) {
	for _, conn := range s.connRepo.SendRoomJSON(roomID, outputMessage{Type: "ROOM_UPDATED"}) {
		s.logger.DebugContext(ctx, "dropping dead connection", "room_id", roomID)
		s.connRepo.RemoveByConn(conn)
	}
}
