package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSong(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	addResp, err := service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", addResp.AddedSong.SourceID)
	assert.Equal(t, "video dQw4w9WgXcQ", addResp.AddedSong.Title)
	assert.Equal(t, 1, addResp.AddedSong.Score, "submitter's automatic upvote")
	assert.Equal(t, VoteUp, addResp.AddedSong.UserVote)
	require.Len(t, addResp.Queue, 1)

	// same video again while still pending
	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "https://youtu.be/dQw4w9WgXcQ",
	})
	require.ErrorIs(t, err, ErrSongAlreadyQueued)

	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "not a url at all",
	})
	require.ErrorIs(t, err, ErrInvalidVideoURL)

	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "https://www.youtube.com/watch?v=missing0000",
	})
	require.ErrorIs(t, err, ErrVideoNotFound)

	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: "stranger",
		VideoURL: "https://www.youtube.com/watch?v=aaaaaaaaaaa",
	})
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestAddSongQueueLimit(t *testing.T) {
	service := newTestService(t, Config{QueueLimit: 2})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	mustAddSong(t, service, createResp.RoomID, createResp.UserID, "aaaaaaaaaaa")
	mustAddSong(t, service, createResp.RoomID, createResp.UserID, "bbbbbbbbbbb")

	_, err = service.AddSong(ctx, &AddSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		VideoURL: "https://www.youtube.com/watch?v=ccccccccccc",
	})
	require.ErrorIs(t, err, ErrQueueLimitReached)

	// played songs do not count against the limit
	_, err = service.InitializePlayback(ctx, &InitializePlaybackParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	_, err = service.Advance(ctx, &AdvanceParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)

	mustAddSong(t, service, createResp.RoomID, createResp.UserID, "ccccccccccc")
}

func TestRemoveSong(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)
	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: createResp.RoomID, Username: "guest"})
	require.NoError(t, err)

	hostSong := mustAddSong(t, service, createResp.RoomID, createResp.UserID, "aaaaaaaaaaa")
	guestSong := mustAddSong(t, service, createResp.RoomID, joinResp.UserID, "bbbbbbbbbbb")

	// only the submitter or the host may remove
	_, err = service.RemoveSong(ctx, &RemoveSongParams{
		RoomID:   createResp.RoomID,
		SenderID: joinResp.UserID,
		SongID:   hostSong.ID,
	})
	require.ErrorIs(t, err, ErrPermissionDenied)

	removeResp, err := service.RemoveSong(ctx, &RemoveSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		SongID:   guestSong.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, guestSong.ID, removeResp.RemovedSongID)
	require.Len(t, removeResp.Queue, 1)

	_, err = service.RemoveSong(ctx, &RemoveSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		SongID:   guestSong.ID,
	})
	require.ErrorIs(t, err, ErrSongNotFound)
}

func TestRemoveSongRejectsCued(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	song := mustAddSong(t, service, createResp.RoomID, createResp.UserID, "aaaaaaaaaaa")

	playback, err := service.InitializePlayback(ctx, &InitializePlaybackParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.NotNil(t, playback.CurrentSongID)
	require.Equal(t, song.ID, *playback.CurrentSongID)

	_, err = service.RemoveSong(ctx, &RemoveSongParams{
		RoomID:   createResp.RoomID,
		SenderID: createResp.UserID,
		SongID:   song.ID,
	})
	require.ErrorIs(t, err, ErrSongIsCurrent)
}

func TestAddSongCuesIdlePlayer(t *testing.T) {
	service := newTestService(t, Config{})
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{Username: "host"})
	require.NoError(t, err)

	// player exists and is idle after draining the queue
	playback, err := service.InitializePlayback(ctx, &InitializePlaybackParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.Nil(t, playback.CurrentSongID)

	song := mustAddSong(t, service, createResp.RoomID, createResp.UserID, "aaaaaaaaaaa")

	snapshot, err := service.GetSnapshot(ctx, &GetSnapshotParams{RoomID: createResp.RoomID, SenderID: createResp.UserID})
	require.NoError(t, err)
	require.NotNil(t, snapshot.Playback.CurrentSongID)
	assert.Equal(t, song.ID, *snapshot.Playback.CurrentSongID)
	assert.False(t, snapshot.Playback.IsPlaying, "nothing has played yet, stay paused")
}
