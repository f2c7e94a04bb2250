package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/service/room"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Client talks to the coordinator's HTTP and websocket surface on behalf of
// a single participant in a single room.
type Client struct {
	baseURL string
	roomID  string
	token   string
	httpc   *http.Client
}

func NewClient(baseURL, roomID, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		roomID:  roomID,
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&envelope)

		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, envelope.Error)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, envelope.Error)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, envelope.Error)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, envelope.Error)
		default:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, envelope.Error)
		}
	}

	if out == nil {
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) Snapshot(ctx context.Context) (room.Snapshot, error) {
	var snapshot room.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/v1/room/"+c.roomID, nil, &snapshot)

	return snapshot, err
}

func (c *Client) InitializePlayback(ctx context.Context) (room.PlaybackState, error) {
	var playback room.PlaybackState
	err := c.do(ctx, http.MethodPost, "/api/v1/room/"+c.roomID+"/playback/initialize", nil, &playback)

	return playback, err
}

func (c *Client) Advance(ctx context.Context, endedSongID *int) (room.AdvanceResponse, error) {
	var resp room.AdvanceResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/room/"+c.roomID+"/playback/advance", map[string]any{
		"ended_song_id": endedSongID,
	}, &resp)

	return resp, err
}

func (c *Client) SetTransport(ctx context.Context, isPlaying *bool, position *float64) (room.PlaybackState, error) {
	var playback room.PlaybackState
	err := c.do(ctx, http.MethodPost, "/api/v1/room/"+c.roomID+"/playback", map[string]any{
		"is_playing":        isPlaying,
		"playback_position": position,
	}, &playback)

	return playback, err
}

// DialUpdates opens the room's signal channel. The token travels as a query
// param because browsers cannot set headers on websocket dials.
func (c *Client) DialUpdates(ctx context.Context) (*websocket.Conn, error) {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += "/api/v1/ws/room/" + c.roomID + "/?token=" + c.token

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial updates channel: %w", err)
	}

	return conn, nil
}
