package room

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/h30s/muzier/internal/repository/connection/inmemory"
	roomRedis "github.com/h30s/muzier/internal/repository/room/redis"
	"github.com/h30s/muzier/pkg/videometa"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, sourceID string) (*videometa.VideoData, error) {
	if sourceID == "missing0000" {
		return nil, videometa.ErrNotFound
	}

	return &videometa.VideoData{
		SourceID:     sourceID,
		Title:        "video " + sourceID,
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", sourceID),
		DurationSec:  212,
	}, nil
}

func newTestService(t *testing.T, config Config) *service {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	r := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	if config.Secret == "" {
		config.Secret = "test-secret"
	}
	if config.MembersLimit == 0 {
		config.MembersLimit = 10
	}
	if config.QueueLimit == 0 {
		config.QueueLimit = 25
	}

	return NewService(roomRedis.NewRepo(r, 24*time.Hour), inmemory.NewRepo(), fakeResolver{}, nil, slog.Default(), config)
}

func mustAddSong(t *testing.T, service *service, roomID, senderID, sourceID string) Song {
	t.Helper()

	resp, err := service.AddSong(context.Background(), &AddSongParams{
		RoomID:   roomID,
		SenderID: senderID,
		VideoURL: "https://www.youtube.com/watch?v=" + sourceID,
	})
	require.NoError(t, err)

	return resp.AddedSong
}

func TestCreateAndJoinRoom(t *testing.T) {
	service := newTestService(t, Config{MembersLimit: 2})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)
	require.NotEmpty(t, createResp.RoomID)
	require.NotEmpty(t, createResp.UserID)
	require.NotEmpty(t, createResp.AuthToken)

	claims, err := service.ParseJWT(createResp.AuthToken)
	require.NoError(t, err)
	require.Equal(t, createResp.UserID, claims.UserID)
	require.Equal(t, createResp.RoomID, claims.RoomID)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "guest"})
	require.NoError(t, err)
	require.NotEqual(t, createResp.UserID, joinResp.UserID)
	require.False(t, joinResp.IsHost)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "third"})
	require.ErrorIs(t, err, ErrMembersLimitReached)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{RoomID: "nosuch", Username: "ghost"})
	require.ErrorIs(t, err, ErrRoomNotFound)

	snapshot, err := service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.True(t, snapshot.IsActive)
	require.Equal(t, createResp.UserID, snapshot.HostID)
	require.Len(t, snapshot.Participants, 2)
	require.Nil(t, snapshot.Playback.CurrentSongID)
}

func TestCloseRoom(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "guest"})
	require.NoError(t, err)

	err = service.CloseRoom(ctx, &CloseRoomParams{RoomID: createResp.RoomID, SenderID: joinResp.UserID})
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = service.CloseRoom(ctx, &CloseRoomParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)

	// closed rooms reject joins and mutations but keep the snapshot readable
	_, err = service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "late"})
	require.ErrorIs(t, err, ErrRoomClosed)

	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.ErrorIs(t, err, ErrRoomClosed)

	snapshot, err := service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.False(t, snapshot.IsActive)
}

func TestLeaveRoom(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)
	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "guest"})
	require.NoError(t, err)

	err = service.LeaveRoom(ctx, &LeaveRoomParams{RoomID: createResp.RoomID, SenderID: "stranger"})
	require.ErrorIs(t, err, ErrNotParticipant)

	err = service.LeaveRoom(ctx, &LeaveRoomParams{RoomID: createResp.RoomID, SenderID: joinResp.UserID})
	require.NoError(t, err)

	_, err = service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: joinResp.UserID})
	require.ErrorIs(t, err, ErrNotParticipant)

	snapshot, err := service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.Len(t, snapshot.Participants, 1)

	// the host leaving ends the session for everyone
	err = service.LeaveRoom(ctx, &LeaveRoomParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)

	snapshot, err = service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.False(t, snapshot.IsActive)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "late"})
	require.ErrorIs(t, err, ErrRoomClosed)
}

func TestSnapshotRequiresMembership(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	_, err = service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: "stranger"})
	require.ErrorIs(t, err, ErrNotParticipant)
}
