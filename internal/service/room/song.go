package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
	"github.com/h30s/muzier/pkg/videometa"
)

type AddSongParams struct {
	RoomID   string
	SenderID string
	VideoURL string
}

type AddSongResponse struct {
	AddedSong Song   `json:"added_song"`
	Queue     []Song `json:"queue"`
}

func (s *service) AddSong(ctx context.Context, params *AddSongParams) (AddSongResponse, error) {
	if _, err := s.getActiveRoom(ctx, params.RoomID); err != nil {
		return AddSongResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return AddSongResponse{}, err
	}

	sourceID, err := videometa.ExtractSourceID(params.VideoURL)
	if err != nil {
		return AddSongResponse{}, ErrInvalidVideoURL
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return AddSongResponse{}, err
	}

	pending := 0
	for _, song := range songs {
		if song.IsPlayed {
			continue
		}
		pending++
		if song.SourceID == sourceID {
			return AddSongResponse{}, ErrSongAlreadyQueued
		}
	}
	if pending >= s.config.QueueLimit {
		return AddSongResponse{}, ErrQueueLimitReached
	}

	videoData, err := s.resolver.Resolve(ctx, sourceID)
	if err != nil {
		switch {
		case errors.Is(err, videometa.ErrNotFound):
			return AddSongResponse{}, ErrVideoNotFound
		case errors.Is(err, videometa.ErrRateLimited):
			return AddSongResponse{}, ErrUpstreamUnavailable
		default:
			return AddSongResponse{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
	}

	songID, err := s.roomRepo.NextSongID(ctx, params.RoomID)
	if err != nil {
		return AddSongResponse{}, err
	}

	if err := s.roomRepo.SetSong(ctx, &room.SetSongParams{
		RoomID:       params.RoomID,
		SongID:       songID,
		SourceID:     sourceID,
		Title:        videoData.Title,
		ThumbnailURL: videoData.ThumbnailURL,
		DurationSec:  videoData.DurationSec,
		AddedByID:    params.SenderID,
		IsPlayed:     false,
	}); err != nil {
		return AddSongResponse{}, fmt.Errorf("failed to set song: %w", err)
	}

	// the adder's automatic upvote is an ordinary ledger vote, toggleable
	// like any other
	if err := s.roomRepo.SetVote(ctx, &room.SetVoteParams{
		RoomID:   params.RoomID,
		SongID:   songID,
		UserID:   params.SenderID,
		VoteType: string(VoteUp),
	}); err != nil {
		return AddSongResponse{}, fmt.Errorf("failed to set initial vote: %w", err)
	}

	addedSong := Song{
		ID:           songID,
		SourceID:     sourceID,
		Title:        videoData.Title,
		ThumbnailURL: videoData.ThumbnailURL,
		DurationSec:  videoData.DurationSec,
		AddedByID:    params.SenderID,
		Score:        1,
		UserVote:     VoteUp,
	}

	if err := s.cueIfIdle(ctx, params.RoomID); err != nil {
		return AddSongResponse{}, err
	}

	songs = append(songs, addedSong)
	votes[songID] = map[string]VoteType{params.SenderID: VoteUp}
	queue := Rank(songs, votes)

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeSongAdded, params.RoomID, params.SenderID, addedSong)

	return AddSongResponse{
		AddedSong: addedSong,
		Queue:     queue,
	}, nil
}

// cueIfIdle promotes the top-ranked pending song when the room's player
// exists but has nothing cued. Rooms without a player are left alone;
// InitializePlayback will cue on creation.
func (s *service) cueIfIdle(ctx context.Context, roomID string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	player, err := s.roomRepo.GetPlayer(ctx, roomID)
	if err != nil {
		if err == room.ErrPlayerNotFound {
			return nil
		}
		return fmt.Errorf("failed to get player: %w", err)
	}

	if player.CurrentSongID != 0 {
		return nil
	}

	songs, votes, err := s.getSongsWithVotes(ctx, roomID)
	if err != nil {
		return err
	}

	ranked := Rank(songs, votes)
	if len(ranked) == 0 {
		return nil
	}

	if err := s.roomRepo.UpdatePlayer(ctx, &room.UpdatePlayerParams{
		RoomID:           roomID,
		CurrentSongID:    ranked[0].ID,
		IsPlaying:        player.EverPlayed,
		PlaybackPosition: 0,
		EverPlayed:       player.EverPlayed,
		UpdatedAt:        time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("failed to cue song: %w", err)
	}

	return nil
}

type RemoveSongParams struct {
	RoomID   string
	SenderID string
	SongID   int
}

type RemoveSongResponse struct {
	RemovedSongID int    `json:"removed_song_id"`
	Queue         []Song `json:"queue"`
}

// RemoveSong deletes a pending song. Only the submitter or the host may
// remove; the cued song cannot be removed (skip it with advance or play-now
// instead).
func (s *service) RemoveSong(ctx context.Context, params *RemoveSongParams) (RemoveSongResponse, error) {
	roomModel, err := s.getActiveRoom(ctx, params.RoomID)
	if err != nil {
		return RemoveSongResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return RemoveSongResponse{}, err
	}

	songModel, err := s.roomRepo.GetSong(ctx, &room.GetSongParams{RoomID: params.RoomID, SongID: params.SongID})
	if err != nil {
		if err == room.ErrSongNotFound {
			return RemoveSongResponse{}, ErrSongNotFound
		}
		return RemoveSongResponse{}, err
	}

	if songModel.AddedByID != params.SenderID && roomModel.HostID != params.SenderID {
		return RemoveSongResponse{}, ErrPermissionDenied
	}

	unlock := s.lockRoom(params.RoomID)
	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err == nil && player.CurrentSongID == params.SongID {
		unlock()
		return RemoveSongResponse{}, ErrSongIsCurrent
	}
	unlock()
	if err != nil && err != room.ErrPlayerNotFound {
		return RemoveSongResponse{}, fmt.Errorf("failed to get player: %w", err)
	}

	if err := s.roomRepo.RemoveSong(ctx, &room.RemoveSongParams{RoomID: params.RoomID, SongID: params.SongID}); err != nil {
		return RemoveSongResponse{}, fmt.Errorf("failed to remove song: %w", err)
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return RemoveSongResponse{}, err
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeSongRemoved, params.RoomID, params.SenderID, map[string]int{"song_id": params.SongID})

	return RemoveSongResponse{
		RemovedSongID: params.SongID,
		Queue:         Rank(songs, votes),
	}, nil
}
