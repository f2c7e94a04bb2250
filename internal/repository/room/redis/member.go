package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/h30s/muzier/internal/repository/room"
)

func (r repo) getMemberKey(roomID, userID string) string {
	return "room:" + roomID + ":member:" + userID
}

func (r repo) getMemberListKey(roomID string) string {
	return "room:" + roomID + ":members"
}

func (r repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	memberKey := r.getMemberKey(params.RoomID, params.UserID)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, memberKey,
		"username", params.Username,
		"joined_at", params.JoinedAt,
	)
	pipe.ZAdd(ctx, r.getMemberListKey(params.RoomID), redis.Z{
		Score:  float64(params.JoinedAt),
		Member: params.UserID,
	})
	pipe.Expire(ctx, memberKey, r.expireDuration)
	pipe.Expire(ctx, r.getMemberListKey(params.RoomID), r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	memberKey := r.getMemberKey(params.RoomID, params.UserID)
	res, err := r.rc.Exists(ctx, memberKey).Result()
	if err != nil {
		return room.Member{}, fmt.Errorf("failed to check if member exists: %w", err)
	}
	if res == 0 {
		return room.Member{}, room.ErrMemberNotFound
	}

	var member room.Member
	if err := r.rc.HGetAll(ctx, memberKey).Scan(&member); err != nil {
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func (r repo) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getMemberKey(roomID, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return res > 0, nil
}

// GetMemberIDs returns the room's user ids in join order.
func (r repo) GetMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	ids, err := r.rc.ZRange(ctx, r.getMemberListKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	return ids, nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getMemberKey(params.RoomID, params.UserID))
	pipe.ZRem(ctx, r.getMemberListKey(params.RoomID), params.UserID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
