package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h30s/muzier/internal/agent"
	"github.com/h30s/muzier/internal/controller"
	"github.com/h30s/muzier/internal/repository/connection/inmemory"
	roomRedis "github.com/h30s/muzier/internal/repository/room/redis"
	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/videometa"
)

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, sourceID string) (*videometa.VideoData, error) {
	return &videometa.VideoData{
		SourceID:     sourceID,
		Title:        "video " + sourceID,
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", sourceID),
		DurationSec:  180,
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	roomRepo := roomRedis.NewRepo(rc, 24*time.Hour)
	connRepo := inmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, stubResolver{}, nil, slog.Default(), room.Config{
		Secret:       "test-secret",
		MembersLimit: 10,
		QueueLimit:   25,
	})

	ts := httptest.NewServer(controller.NewController(roomService, slog.Default()).GetMux())
	t.Cleanup(ts.Close)

	return ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return envelope.Data
}

func TestEndToEndFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	// host creates the room
	resp := postJSON(t, ts.URL+"/api/v1/room", "", map[string]string{"username": "host"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData[room.CreateRoomResponse](t, resp)
	require.NotEmpty(t, created.RoomID)
	require.NotEmpty(t, created.AuthToken)

	// guest joins
	resp = postJSON(t, ts.URL+"/api/v1/room/"+created.RoomID+"/join", "", map[string]string{"username": "guest"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeData[room.JoinRoomResponse](t, resp)

	host := agent.NewClient(ts.URL, created.RoomID, created.AuthToken)
	guest := agent.NewClient(ts.URL, created.RoomID, joined.AuthToken)

	// the host's agent subscribes to the update channel
	conn, err := host.DialUpdates(ctx)
	require.NoError(t, err)
	defer conn.Close()

	// guest queues two songs
	resp = postJSON(t, ts.URL+"/api/v1/room/"+created.RoomID+"/song", joined.AuthToken,
		map[string]string{"video_url": "https://www.youtube.com/watch?v=aaaaaaaaaaa"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	firstAdd := decodeData[room.AddSongResponse](t, resp)

	resp = postJSON(t, ts.URL+"/api/v1/room/"+created.RoomID+"/song", joined.AuthToken,
		map[string]string{"video_url": "https://youtu.be/bbbbbbbbbbb"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	secondAdd := decodeData[room.AddSongResponse](t, resp)

	// a queued change reaches the subscribed connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var signal struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&signal))
	assert.Equal(t, "ROOM_UPDATED", signal.Type)

	// host upvotes the second song to the top
	resp = postJSON(t, ts.URL+"/api/v1/room/"+created.RoomID+"/vote", created.AuthToken,
		map[string]any{"song_id": secondAdd.AddedSong.ID, "vote_type": "up"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	voted := decodeData[room.CastVoteResponse](t, resp)
	require.Equal(t, 2, voted.Score)
	require.Equal(t, secondAdd.AddedSong.ID, voted.Queue[0].ID)

	// host cues playback
	playback, err := host.InitializePlayback(ctx)
	require.NoError(t, err)
	require.NotNil(t, playback.CurrentSongID)
	require.Equal(t, secondAdd.AddedSong.ID, *playback.CurrentSongID)

	// guests cannot touch the transport
	isPlaying := true
	_, err = guest.SetTransport(ctx, &isPlaying, nil)
	require.ErrorIs(t, err, agent.ErrForbidden)

	playback, err = host.SetTransport(ctx, &isPlaying, nil)
	require.NoError(t, err)
	require.True(t, playback.IsPlaying)

	// the track ends; a stale report afterwards is a conflict, not damage
	advanced, err := guest.Advance(ctx, playback.CurrentSongID)
	require.NoError(t, err)
	require.NotNil(t, advanced.Playback.CurrentSongID)
	require.Equal(t, firstAdd.AddedSong.ID, *advanced.Playback.CurrentSongID)
	require.True(t, advanced.Playback.IsPlaying)

	_, err = guest.Advance(ctx, &secondAdd.AddedSong.ID)
	require.ErrorIs(t, err, agent.ErrConflict)

	snapshot, err := guest.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.History, 1)
	assert.Equal(t, secondAdd.AddedSong.ID, snapshot.History[0].ID)

	// only the host closes the room
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/room/"+created.RoomID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+joined.AuthToken)
	deleteResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	deleteResp.Body.Close()
	require.Equal(t, http.StatusForbidden, deleteResp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/room/"+created.RoomID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+created.AuthToken)
	deleteResp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	deleteResp.Body.Close()
	require.Equal(t, http.StatusNoContent, deleteResp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/room/"+created.RoomID+"/join", "", map[string]string{"username": "late"})
	resp.Body.Close()
	require.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestAuthIsEnforced(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/room", "", map[string]string{"username": "host"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData[room.CreateRoomResponse](t, resp)

	// no token
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/room/"+created.RoomID, nil)
	require.NoError(t, err)
	getResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, getResp.StatusCode)

	// token scoped to another room
	resp = postJSON(t, ts.URL+"/api/v1/room", "", map[string]string{"username": "other"})
	other := decodeData[room.CreateRoomResponse](t, resp)

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/api/v1/room/"+created.RoomID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+other.AuthToken)
	getResp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusForbidden, getResp.StatusCode)
}

func TestConfigValidate(t *testing.T) {
	cfg := &AppConfig{Secret: "s", MembersLimit: 10, QueueLimit: 25}
	require.NoError(t, cfg.Validate())

	require.Error(t, (&AppConfig{MembersLimit: 10, QueueLimit: 25}).Validate())
	require.Error(t, (&AppConfig{Secret: "s", QueueLimit: 25}).Validate())
	require.Error(t, (&AppConfig{Secret: "s", MembersLimit: 10}).Validate())
}
