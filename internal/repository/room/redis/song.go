package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/h30s/muzier/internal/repository/room"
)

func (r repo) getSongKey(roomID string, songID int) string {
	return "room:" + roomID + ":song:" + strconv.Itoa(songID)
}

func (r repo) getSongListKey(roomID string) string {
	return "room:" + roomID + ":songs"
}

func (r repo) getSongSeqKey(roomID string) string {
	return "room:" + roomID + ":song-id"
}

// NextSongID allocates the next monotonic song id for the room. Ids are never
// reused, so they double as the submission-order sort key.
func (r repo) NextSongID(ctx context.Context, roomID string) (int, error) {
	id, err := r.rc.Incr(ctx, r.getSongSeqKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate song id: %w", err)
	}

	r.rc.Expire(ctx, r.getSongSeqKey(roomID), r.expireDuration)

	return int(id), nil
}

func (r repo) SetSong(ctx context.Context, params *room.SetSongParams) error {
	songKey := r.getSongKey(params.RoomID, params.SongID)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, songKey,
		"source_id", params.SourceID,
		"title", params.Title,
		"thumbnail_url", params.ThumbnailURL,
		"duration_sec", params.DurationSec,
		"added_by_id", params.AddedByID,
		"is_played", boolToField(params.IsPlayed),
	)
	pipe.ZAdd(ctx, r.getSongListKey(params.RoomID), redis.Z{
		Score:  float64(params.SongID),
		Member: params.SongID,
	})
	pipe.Expire(ctx, songKey, r.expireDuration)
	pipe.Expire(ctx, r.getSongListKey(params.RoomID), r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set song: %w", err)
	}

	return nil
}

func (r repo) GetSong(ctx context.Context, params *room.GetSongParams) (room.Song, error) {
	songKey := r.getSongKey(params.RoomID, params.SongID)
	res, err := r.rc.Exists(ctx, songKey).Result()
	if err != nil {
		return room.Song{}, fmt.Errorf("failed to check if song exists: %w", err)
	}
	if res == 0 {
		return room.Song{}, room.ErrSongNotFound
	}

	var song room.Song
	if err := r.rc.HGetAll(ctx, songKey).Scan(&song); err != nil {
		return room.Song{}, fmt.Errorf("failed to get song: %w", err)
	}

	r.rc.Expire(ctx, songKey, r.expireDuration)

	return song, nil
}

// GetSongIDs returns the room's song ids in submission order.
func (r repo) GetSongIDs(ctx context.Context, roomID string) ([]int, error) {
	members, err := r.rc.ZRange(ctx, r.getSongListKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get song ids: %w", err)
	}

	ids := make([]int, 0, len(members))
	for _, member := range members {
		ids = append(ids, fieldToInt(member))
	}

	return ids, nil
}

func (r repo) RemoveSong(ctx context.Context, params *room.RemoveSongParams) error {
	songKey := r.getSongKey(params.RoomID, params.SongID)
	res, err := r.rc.Del(ctx, songKey).Result()
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	if res == 0 {
		return room.ErrSongNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.ZRem(ctx, r.getSongListKey(params.RoomID), params.SongID)
	pipe.Del(ctx, r.getVotesKey(params.RoomID, params.SongID))

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove song refs: %w", err)
	}

	return nil
}
