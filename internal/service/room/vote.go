package room

import (
	"context"
	"fmt"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
)

type CastVoteParams struct {
	RoomID   string
	SenderID string
	SongID   int
	VoteType VoteType
}

type CastVoteResponse struct {
	SongID   int      `json:"song_id"`
	Score    int      `json:"score"`
	UserVote VoteType `json:"user_vote,omitempty"`
	Queue    []Song   `json:"queue"`
}

// CastVote toggles the sender's vote on a song. Same type again retracts
// it, the opposite type replaces it, no prior vote records a new one. At
// most one vote row per (song, user) ever exists.
func (s *service) CastVote(ctx context.Context, params *CastVoteParams) (CastVoteResponse, error) {
	if !params.VoteType.Valid() {
		return CastVoteResponse{}, ErrInvalidVoteType
	}

	if _, err := s.getActiveRoom(ctx, params.RoomID); err != nil {
		return CastVoteResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return CastVoteResponse{}, err
	}

	if _, err := s.roomRepo.GetSong(ctx, &room.GetSongParams{RoomID: params.RoomID, SongID: params.SongID}); err != nil {
		if err == room.ErrSongNotFound {
			return CastVoteResponse{}, ErrSongNotFound
		}
		return CastVoteResponse{}, fmt.Errorf("failed to get song: %w", err)
	}

	existing, err := s.roomRepo.GetVote(ctx, &room.GetVoteParams{
		RoomID: params.RoomID,
		SongID: params.SongID,
		UserID: params.SenderID,
	})
	if err != nil && err != room.ErrVoteNotFound {
		return CastVoteResponse{}, fmt.Errorf("failed to get vote: %w", err)
	}

	var userVote VoteType
	if err == nil && VoteType(existing) == params.VoteType {
		if err := s.roomRepo.RemoveVote(ctx, &room.RemoveVoteParams{
			RoomID: params.RoomID,
			SongID: params.SongID,
			UserID: params.SenderID,
		}); err != nil {
			return CastVoteResponse{}, fmt.Errorf("failed to remove vote: %w", err)
		}
	} else {
		if err := s.roomRepo.SetVote(ctx, &room.SetVoteParams{
			RoomID:   params.RoomID,
			SongID:   params.SongID,
			UserID:   params.SenderID,
			VoteType: string(params.VoteType),
		}); err != nil {
			return CastVoteResponse{}, fmt.Errorf("failed to set vote: %w", err)
		}
		userVote = params.VoteType
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return CastVoteResponse{}, err
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeVoteCast, params.RoomID, params.SenderID, map[string]any{
		"song_id":   params.SongID,
		"vote_type": userVote,
	})

	return CastVoteResponse{
		SongID:   params.SongID,
		Score:    Score(votes[params.SongID]),
		UserVote: userVote,
		Queue:    Rank(songs, votes),
	}, nil
}
