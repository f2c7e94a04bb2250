package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/h30s/muzier/internal/repository/room"
)

func (r repo) getVotesKey(roomID string, songID int) string {
	return "room:" + roomID + ":song:" + strconv.Itoa(songID) + ":votes"
}

func (r repo) SetVote(ctx context.Context, params *room.SetVoteParams) error {
	votesKey := r.getVotesKey(params.RoomID, params.SongID)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, votesKey, params.UserID, params.VoteType)
	pipe.Expire(ctx, votesKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set vote: %w", err)
	}

	return nil
}

func (r repo) GetVote(ctx context.Context, params *room.GetVoteParams) (string, error) {
	voteType, err := r.rc.HGet(ctx, r.getVotesKey(params.RoomID, params.SongID), params.UserID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", room.ErrVoteNotFound
		}

		return "", fmt.Errorf("failed to get vote: %w", err)
	}

	return voteType, nil
}

func (r repo) RemoveVote(ctx context.Context, params *room.RemoveVoteParams) error {
	res, err := r.rc.HDel(ctx, r.getVotesKey(params.RoomID, params.SongID), params.UserID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove vote: %w", err)
	}
	if res == 0 {
		return room.ErrVoteNotFound
	}

	return nil
}

// GetVotes returns user id -> vote type for one song.
func (r repo) GetVotes(ctx context.Context, roomID string, songID int) (map[string]string, error) {
	votes, err := r.rc.HGetAll(ctx, r.getVotesKey(roomID, songID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}

	return votes, nil
}
