package room

import (
	"context"
	"fmt"
	"time"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
)

// ensurePlayer creates the room's playback record if it does not exist yet
// and returns the current one. Creation is conditional on the redis side, so
// concurrent callers never clobber live state. Must be called with the room
// lock held.
func (s *service) ensurePlayer(ctx context.Context, roomID string) (room.Player, error) {
	if _, err := s.roomRepo.SetPlayerIfNotExists(ctx, &room.SetPlayerParams{
		RoomID:           roomID,
		CurrentSongID:    0,
		IsPlaying:        false,
		PlaybackPosition: 0,
		EverPlayed:       false,
		UpdatedAt:        time.Now().Unix(),
	}); err != nil {
		return room.Player{}, fmt.Errorf("failed to ensure player: %w", err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomID)
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

type InitializePlaybackParams struct {
	RoomID   string
	SenderID string
}

// InitializePlayback makes sure the room has a playback record, cueing the
// top-ranked song paused when one is pending. Calling it against a room that
// already has live state changes nothing, so clients may fire it on every
// mount without regressing playback.
func (s *service) InitializePlayback(ctx context.Context, params *InitializePlaybackParams) (PlaybackState, error) {
	if _, err := s.getActiveRoom(ctx, params.RoomID); err != nil {
		return PlaybackState{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return PlaybackState{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.ensurePlayer(ctx, params.RoomID)
	if err != nil {
		return PlaybackState{}, err
	}

	if player.CurrentSongID == 0 {
		songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
		if err != nil {
			return PlaybackState{}, err
		}

		if ranked := Rank(songs, votes); len(ranked) > 0 {
			player.CurrentSongID = ranked[0].ID
			player.IsPlaying = player.EverPlayed
			player.PlaybackPosition = 0
			player.UpdatedAt = time.Now().Unix()

			if err := s.roomRepo.UpdatePlayer(ctx, &room.UpdatePlayerParams{
				RoomID:           params.RoomID,
				CurrentSongID:    player.CurrentSongID,
				IsPlaying:        player.IsPlaying,
				PlaybackPosition: player.PlaybackPosition,
				EverPlayed:       player.EverPlayed,
				UpdatedAt:        player.UpdatedAt,
			}); err != nil {
				return PlaybackState{}, fmt.Errorf("failed to cue song: %w", err)
			}

			s.notifyRoomUpdated(ctx, params.RoomID)
		}
	}

	return playbackStateFromPlayer(player), nil
}

type AdvanceParams struct {
	RoomID   string
	SenderID string
	// EndedSongID guards against racing agents: when set, the advance only
	// applies if that song is still the cued one. Nil advances
	// unconditionally (the host skip button).
	EndedSongID *int
}

type AdvanceResponse struct {
	Playback PlaybackState `json:"playback"`
	Queue    []Song        `json:"queue"`
}

// Advance marks the cued song played and promotes the top-ranked pending
// song. A stale EndedSongID returns ErrStalePlayback so late agents treat
// the advance as already done. Advancing an idle player is a no-op.
func (s *service) Advance(ctx context.Context, params *AdvanceParams) (AdvanceResponse, error) {
	if _, err := s.getActiveRoom(ctx, params.RoomID); err != nil {
		return AdvanceResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return AdvanceResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.ensurePlayer(ctx, params.RoomID)
	if err != nil {
		return AdvanceResponse{}, err
	}

	if params.EndedSongID != nil && *params.EndedSongID != player.CurrentSongID {
		return AdvanceResponse{}, ErrStalePlayback
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return AdvanceResponse{}, err
	}

	if player.CurrentSongID == 0 {
		return AdvanceResponse{
			Playback: playbackStateFromPlayer(player),
			Queue:    Rank(songs, votes),
		}, nil
	}

	endedSongID := player.CurrentSongID
	for i := range songs {
		if songs[i].ID == endedSongID {
			songs[i].IsPlayed = true
		}
	}

	queue := Rank(songs, votes)

	player.PlaybackPosition = 0
	player.UpdatedAt = time.Now().Unix()
	if len(queue) > 0 {
		player.CurrentSongID = queue[0].ID
		// autoplay only once playback has been started in this room
		player.IsPlaying = player.EverPlayed
	} else {
		player.CurrentSongID = 0
		player.IsPlaying = false
	}

	// one transaction: the ended song's played flag and the new player
	// record must never land separately
	if err := s.roomRepo.CommitPlayback(ctx, &room.CommitPlaybackParams{
		RoomID:           params.RoomID,
		CurrentSongID:    player.CurrentSongID,
		IsPlaying:        player.IsPlaying,
		PlaybackPosition: player.PlaybackPosition,
		EverPlayed:       player.EverPlayed,
		UpdatedAt:        player.UpdatedAt,
		MarkPlayed:       []int{endedSongID},
	}); err != nil {
		return AdvanceResponse{}, fmt.Errorf("failed to commit advance: %w", err)
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypePlaybackAdvanced, params.RoomID, params.SenderID, map[string]any{
		"ended_song_id":   endedSongID,
		"current_song_id": player.CurrentSongID,
	})

	return AdvanceResponse{
		Playback: playbackStateFromPlayer(player),
		Queue:    queue,
	}, nil
}

type SetTransportParams struct {
	RoomID           string
	SenderID         string
	IsPlaying        *bool
	PlaybackPosition *float64
}

// SetTransport applies partial transport updates (play, pause, seek).
// Host-only unless AllowAllControls is configured.
func (s *service) SetTransport(ctx context.Context, params *SetTransportParams) (PlaybackState, error) {
	if params.IsPlaying == nil && params.PlaybackPosition == nil {
		return PlaybackState{}, ErrNoFieldsToUpdate
	}

	roomModel, err := s.getActiveRoom(ctx, params.RoomID)
	if err != nil {
		return PlaybackState{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return PlaybackState{}, err
	}

	if err := s.checkTransportAllowed(roomModel, params.SenderID); err != nil {
		return PlaybackState{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	player, err := s.ensurePlayer(ctx, params.RoomID)
	if err != nil {
		return PlaybackState{}, err
	}

	updateParams := room.UpdatePlayerStateParams{
		RoomID:           params.RoomID,
		IsPlaying:        params.IsPlaying,
		PlaybackPosition: params.PlaybackPosition,
		UpdatedAt:        time.Now().Unix(),
	}

	if params.IsPlaying != nil {
		player.IsPlaying = *params.IsPlaying
		if *params.IsPlaying && !player.EverPlayed {
			everPlayed := true
			player.EverPlayed = true
			updateParams.EverPlayed = &everPlayed
		}
	}
	if params.PlaybackPosition != nil {
		player.PlaybackPosition = *params.PlaybackPosition
	}
	player.UpdatedAt = updateParams.UpdatedAt

	if err := s.roomRepo.UpdatePlayerState(ctx, &updateParams); err != nil {
		return PlaybackState{}, fmt.Errorf("failed to update player state: %w", err)
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeTransportChanged, params.RoomID, params.SenderID, playbackStateFromPlayer(player))

	return playbackStateFromPlayer(player), nil
}

type PlayNowParams struct {
	RoomID   string
	SenderID string
	SongID   int
}

type PlayNowResponse struct {
	Playback PlaybackState `json:"playback"`
	Queue    []Song        `json:"queue"`
}

// PlayNow jumps playback straight to the chosen song. Every song submitted
// before it is marked played so the queue cannot rewind past the jump; the
// chosen song itself is forced unplayed and cued playing.
func (s *service) PlayNow(ctx context.Context, params *PlayNowParams) (PlayNowResponse, error) {
	roomModel, err := s.getActiveRoom(ctx, params.RoomID)
	if err != nil {
		return PlayNowResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return PlayNowResponse{}, err
	}

	if err := s.checkTransportAllowed(roomModel, params.SenderID); err != nil {
		return PlayNowResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	if _, err := s.roomRepo.GetSong(ctx, &room.GetSongParams{RoomID: params.RoomID, SongID: params.SongID}); err != nil {
		if err == room.ErrSongNotFound {
			return PlayNowResponse{}, ErrSongNotFound
		}
		return PlayNowResponse{}, fmt.Errorf("failed to get song: %w", err)
	}

	player, err := s.ensurePlayer(ctx, params.RoomID)
	if err != nil {
		return PlayNowResponse{}, err
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return PlayNowResponse{}, err
	}

	var markPlayed, markUnplayed []int
	for i := range songs {
		switch {
		case songs[i].ID < params.SongID && !songs[i].IsPlayed:
			markPlayed = append(markPlayed, songs[i].ID)
			songs[i].IsPlayed = true
		case songs[i].ID == params.SongID && songs[i].IsPlayed:
			markUnplayed = append(markUnplayed, songs[i].ID)
			songs[i].IsPlayed = false
		}
	}

	player.CurrentSongID = params.SongID
	player.IsPlaying = true
	player.EverPlayed = true
	player.PlaybackPosition = 0
	player.UpdatedAt = time.Now().Unix()

	if err := s.roomRepo.CommitPlayback(ctx, &room.CommitPlaybackParams{
		RoomID:           params.RoomID,
		CurrentSongID:    player.CurrentSongID,
		IsPlaying:        player.IsPlaying,
		PlaybackPosition: player.PlaybackPosition,
		EverPlayed:       player.EverPlayed,
		UpdatedAt:        player.UpdatedAt,
		MarkPlayed:       markPlayed,
		MarkUnplayed:     markUnplayed,
	}); err != nil {
		return PlayNowResponse{}, fmt.Errorf("failed to commit play now: %w", err)
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypePlaybackAdvanced, params.RoomID, params.SenderID, map[string]any{
		"current_song_id": params.SongID,
		"play_now":        true,
	})

	return PlayNowResponse{
		Playback: playbackStateFromPlayer(player),
		Queue:    Rank(songs, votes),
	}, nil
}
