package redis

import (
	"context"
	"fmt"

	"github.com/h30s/muzier/internal/repository/room"
)

func (r repo) getPlayerKey(roomID string) string {
	return "room:" + roomID + ":player"
}

// SetPlayerIfNotExists creates the room's player hash unless one already
// exists. Returns true when this call created it; an existing player is
// never overwritten.
func (r repo) SetPlayerIfNotExists(ctx context.Context, params *room.SetPlayerParams) (bool, error) {
	playerKey := r.getPlayerKey(params.RoomID)

	created, err := r.hSetIfNotExists(ctx, playerKey, []any{
		"current_song_id", params.CurrentSongID,
		"is_playing", boolToField(params.IsPlaying),
		"playback_position", params.PlaybackPosition,
		"ever_played", boolToField(params.EverPlayed),
		"updated_at", params.UpdatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to set player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return created, nil
}

func (r repo) GetPlayer(ctx context.Context, roomID string) (room.Player, error) {
	playerKey := r.getPlayerKey(roomID)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to check if player exists: %w", err)
	}
	if res == 0 {
		return room.Player{}, room.ErrPlayerNotFound
	}

	var player room.Player
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return player, nil
}

// UpdatePlayer replaces the whole playback record in one write.
func (r repo) UpdatePlayer(ctx context.Context, params *room.UpdatePlayerParams) error {
	playerKey := r.getPlayerKey(params.RoomID)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return err
	}
	if res == 0 {
		return room.ErrPlayerNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, playerKey,
		"current_song_id", params.CurrentSongID,
		"is_playing", boolToField(params.IsPlaying),
		"playback_position", params.PlaybackPosition,
		"ever_played", boolToField(params.EverPlayed),
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// CommitPlayback writes a playback transition in one transaction: the songs
// flipping their played flag and the new player record either all land or
// none do, so the player never points at a played song.
func (r repo) CommitPlayback(ctx context.Context, params *room.CommitPlaybackParams) error {
	playerKey := r.getPlayerKey(params.RoomID)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return err
	}
	if res == 0 {
		return room.ErrPlayerNotFound
	}

	pipe := r.rc.TxPipeline()
	for _, songID := range params.MarkPlayed {
		pipe.HSet(ctx, r.getSongKey(params.RoomID, songID), "is_played", boolToField(true))
	}
	for _, songID := range params.MarkUnplayed {
		pipe.HSet(ctx, r.getSongKey(params.RoomID, songID), "is_played", boolToField(false))
	}
	pipe.HSet(ctx, playerKey,
		"current_song_id", params.CurrentSongID,
		"is_playing", boolToField(params.IsPlaying),
		"playback_position", params.PlaybackPosition,
		"ever_played", boolToField(params.EverPlayed),
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to commit playback: %w", err)
	}

	return nil
}

// UpdatePlayerState applies a partial transport update: nil fields stay
// untouched.
func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	playerKey := r.getPlayerKey(params.RoomID)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return err
	}
	if res == 0 {
		return room.ErrPlayerNotFound
	}

	fields := []any{"updated_at", params.UpdatedAt}
	if params.IsPlaying != nil {
		fields = append(fields, "is_playing", boolToField(*params.IsPlaying))
	}
	if params.PlaybackPosition != nil {
		fields = append(fields, "playback_position", *params.PlaybackPosition)
	}
	if params.EverPlayed != nil {
		fields = append(fields, "ever_played", boolToField(*params.EverPlayed))
	}

	if err := r.rc.HSet(ctx, playerKey, fields...).Err(); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return nil
}
