package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
)

// getActiveRoom fetches the room and rejects closed ones.
func (s *service) getActiveRoom(ctx context.Context, roomID string) (room.Room, error) {
	roomModel, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return room.Room{}, ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if !roomModel.IsActive {
		return room.Room{}, ErrRoomClosed
	}

	return roomModel, nil
}

func (s *service) checkMembership(ctx context.Context, roomID, userID string) error {
	isMember, err := s.roomRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrNotParticipant
	}

	return nil
}

// checkTransportAllowed enforces the transport-control policy: host only by
// default, everyone when AllowAllControls is configured.
func (s *service) checkTransportAllowed(roomModel room.Room, senderID string) error {
	if s.config.AllowAllControls {
		return nil
	}
	if roomModel.HostID != senderID {
		return ErrPermissionDenied
	}

	return nil
}

// getSongsWithVotes loads every song of the room (submission order) together
// with its vote rows.
func (s *service) getSongsWithVotes(ctx context.Context, roomID string) ([]Song, map[int]map[string]VoteType, error) {
	songIDs, err := s.roomRepo.GetSongIDs(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get song ids: %w", err)
	}

	songs := make([]Song, 0, len(songIDs))
	votes := make(map[int]map[string]VoteType, len(songIDs))
	for _, songID := range songIDs {
		songModel, err := s.roomRepo.GetSong(ctx, &room.GetSongParams{RoomID: roomID, SongID: songID})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get song: %w", err)
		}

		songVotes, err := s.roomRepo.GetVotes(ctx, roomID, songID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get votes: %w", err)
		}

		typed := make(map[string]VoteType, len(songVotes))
		for userID, voteType := range songVotes {
			typed[userID] = VoteType(voteType)
		}
		votes[songID] = typed

		songs = append(songs, Song{
			ID:           songID,
			SourceID:     songModel.SourceID,
			Title:        songModel.Title,
			ThumbnailURL: songModel.ThumbnailURL,
			DurationSec:  songModel.DurationSec,
			AddedByID:    songModel.AddedByID,
			IsPlayed:     songModel.IsPlayed,
		})
	}

	return songs, votes, nil
}

func playbackStateFromPlayer(player room.Player) PlaybackState {
	state := PlaybackState{
		IsPlaying:        player.IsPlaying,
		PlaybackPosition: player.PlaybackPosition,
		UpdatedAt:        player.UpdatedAt,
	}
	if player.CurrentSongID != 0 {
		songID := player.CurrentSongID
		state.CurrentSongID = &songID
	}

	return state
}

// publishEvent ships a domain event to the configured broker. Publishing is
// best-effort: failures are logged, never returned.
func (s *service) publishEvent(ctx context.Context, eventType events.EventType, roomID, userID string, payload any) {
	if s.publisher == nil {
		return
	}

	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to marshal event payload", "type", eventType, "err", err)
			return
		}
		raw = encoded
	}

	if err := s.publisher.Publish(ctx, &events.Event{
		Type:    eventType,
		RoomID:  roomID,
		UserID:  userID,
		Payload: raw,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "type", eventType, "err", err)
	}
}
