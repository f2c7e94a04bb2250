package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
)

type CreateRoomParams struct {
	Username string
}

type CreateRoomResponse struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	roomID := s.generator.GenerateRandomString(s.config.RoomCodeLen)
	userID := uuid.NewString()
	now := time.Now().Unix()

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomID:    roomID,
		HostID:    userID,
		CreatedAt: now,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
	}

	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomID:   roomID,
		UserID:   userID,
		Username: params.Username,
		JoinedAt: now,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to add host member: %w", err)
	}

	authToken, err := s.generateJWT(userID, roomID)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	s.publishEvent(ctx, events.EventTypeRoomCreated, roomID, userID, nil)

	return CreateRoomResponse{
		RoomID:    roomID,
		UserID:    userID,
		AuthToken: authToken,
	}, nil
}

type JoinRoomParams struct {
	RoomID   string
	Username string
}

type JoinRoomResponse struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
	IsHost    bool   `json:"is_host"`
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	roomModel, err := s.getActiveRoom(ctx, params.RoomID)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	memberIDs, err := s.roomRepo.GetMemberIDs(ctx, params.RoomID)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}
	if len(memberIDs) >= s.config.MembersLimit {
		return JoinRoomResponse{}, ErrMembersLimitReached
	}

	userID := uuid.NewString()
	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomID:   params.RoomID,
		UserID:   userID,
		Username: params.Username,
		JoinedAt: time.Now().Unix(),
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	authToken, err := s.generateJWT(userID, params.RoomID)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeMemberJoined, params.RoomID, userID, nil)

	return JoinRoomResponse{
		RoomID:    params.RoomID,
		UserID:    userID,
		AuthToken: authToken,
		IsHost:    roomModel.HostID == userID,
	}, nil
}

type CloseRoomParams struct {
	RoomID   string
	SenderID string
}

// CloseRoom flips the room inactive. State keeps its TTL so history stays
// readable; joins and mutations are rejected from here on.
func (s *service) CloseRoom(ctx context.Context, params *CloseRoomParams) error {
	roomModel, err := s.getActiveRoom(ctx, params.RoomID)
	if err != nil {
		return err
	}

	if roomModel.HostID != params.SenderID {
		return ErrPermissionDenied
	}

	if err := s.roomRepo.UpdateRoomIsActive(ctx, params.RoomID, false); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}

	s.notifyRoomUpdated(ctx, params.RoomID)

	return nil
}

type LeaveRoomParams struct {
	RoomID   string
	SenderID string
}

// LeaveRoom removes the sender from the room and closes their update
// connections. Their votes stay in the ledger. The host leaving ends the
// session: the room flips inactive the same way CloseRoom does.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) error {
	roomModel, err := s.roomRepo.GetRoom(ctx, params.RoomID)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return err
	}

	if roomModel.HostID == params.SenderID {
		if roomModel.IsActive {
			if err := s.roomRepo.UpdateRoomIsActive(ctx, params.RoomID, false); err != nil {
				return fmt.Errorf("failed to close room: %w", err)
			}
		}
	} else {
		if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
			RoomID: params.RoomID,
			UserID: params.SenderID,
		}); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
	}

	for _, conn := range s.connRepo.GetRoomConns(params.RoomID) {
		if userID, err := s.connRepo.GetUserID(conn); err == nil && userID == params.SenderID {
			s.connRepo.RemoveByConn(conn)
		}
	}

	s.notifyRoomUpdated(ctx, params.RoomID)
	s.publishEvent(ctx, events.EventTypeMemberLeft, params.RoomID, params.SenderID, nil)

	return nil
}

type GetSnapshotParams struct {
	RoomID   string
	SenderID string
}

// GetSnapshot is the single authoritative read: ranked queue, played
// history, playback state and participants. Clients call it on mount, on
// every ROOM_UPDATED signal and from the polling fallback.
func (s *service) GetSnapshot(ctx context.Context, params *GetSnapshotParams) (Snapshot, error) {
	roomModel, err := s.roomRepo.GetRoom(ctx, params.RoomID)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return Snapshot{}, ErrRoomNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to get room: %w", err)
	}

	if err := s.checkMembership(ctx, params.RoomID, params.SenderID); err != nil {
		return Snapshot{}, err
	}

	songs, votes, err := s.getSongsWithVotes(ctx, params.RoomID)
	if err != nil {
		return Snapshot{}, err
	}

	queue := Rank(songs, votes)
	for i := range queue {
		queue[i].UserVote = votes[queue[i].ID][params.SenderID]
	}

	history := make([]Song, 0)
	for _, song := range songs {
		if song.IsPlayed {
			song.Score = Score(votes[song.ID])
			history = append(history, song)
		}
	}

	var playback PlaybackState
	player, err := s.roomRepo.GetPlayer(ctx, params.RoomID)
	if err != nil && err != room.ErrPlayerNotFound {
		return Snapshot{}, fmt.Errorf("failed to get player: %w", err)
	}
	if err == nil {
		playback = playbackStateFromPlayer(player)
	}

	memberIDs, err := s.roomRepo.GetMemberIDs(ctx, params.RoomID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	participants := make([]Participant, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{RoomID: params.RoomID, UserID: memberID})
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to get member: %w", err)
		}

		participants = append(participants, Participant{
			UserID:   memberID,
			Username: member.Username,
			JoinedAt: member.JoinedAt,
			IsHost:   memberID == roomModel.HostID,
		})
	}

	return Snapshot{
		RoomID:       params.RoomID,
		HostID:       roomModel.HostID,
		IsActive:     roomModel.IsActive,
		Queue:        queue,
		History:      history,
		Playback:     playback,
		Participants: participants,
	}, nil
}

type ConnectParams struct {
	Conn   *websocket.Conn
	RoomID string
	UserID string
}

func (s *service) Connect(ctx context.Context, params *ConnectParams) error {
	if _, err := s.getActiveRoom(ctx, params.RoomID); err != nil {
		return err
	}

	if err := s.checkMembership(ctx, params.RoomID, params.UserID); err != nil {
		return err
	}

	return s.connRepo.Add(params.Conn, params.RoomID, params.UserID)
}

func (s *service) Disconnect(conn *websocket.Conn) error {
	return s.connRepo.RemoveByConn(conn)
}
