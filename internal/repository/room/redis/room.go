package redis

import (
	"context"
	"fmt"

	"github.com/h30s/muzier/internal/repository/room"
)

func (r repo) getRoomKey(roomID string) string {
	return "room:" + roomID
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	roomKey := r.getRoomKey(params.RoomID)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, roomKey,
		"host_id", params.HostID,
		"is_active", boolToField(true),
		"created_at", params.CreatedAt,
	)
	pipe.Expire(ctx, roomKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomID string) (room.Room, error) {
	roomKey := r.getRoomKey(roomID)
	res, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to check if room exists: %w", err)
	}
	if res == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var roomModel room.Room
	if err := r.rc.HGetAll(ctx, roomKey).Scan(&roomModel); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return roomModel, nil
}

func (r repo) UpdateRoomIsActive(ctx context.Context, roomID string, isActive bool) error {
	roomKey := r.getRoomKey(roomID)
	res, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		return err
	}
	if res == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey, "is_active", boolToField(isActive)).Err(); err != nil {
		return fmt.Errorf("failed to update room is_active: %w", err)
	}

	return nil
}
