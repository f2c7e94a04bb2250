package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/rest"
)

type createRoomInput struct {
	Username string `json:"username" validate:"required,max=32"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	createRoomResp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Username: req.Username,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResp})
}

type joinRoomInput struct {
	Username string `json:"username" validate:"required,max=32"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomID:   chi.URLParam(r, "room-id"),
		Username: req.Username,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": joinRoomResp})
}

func (c controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	if err := c.roomService.LeaveRoom(r.Context(), &room.LeaveRoomParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
	}); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) closeRoom(w http.ResponseWriter, r *http.Request) {
	if err := c.roomService.CloseRoom(r.Context(), &room.CloseRoomParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
	}); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := c.roomService.GetSnapshot(r.Context(), &room.GetSnapshotParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": snapshot})
}

type addSongInput struct {
	VideoURL string `json:"video_url" validate:"required"`
}

func (c controller) addSong(w http.ResponseWriter, r *http.Request) {
	var req addSongInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	addSongResp, err := c.roomService.AddSong(r.Context(), &room.AddSongParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
		VideoURL: req.VideoURL,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": addSongResp})
}

func (c controller) removeSong(w http.ResponseWriter, r *http.Request) {
	songID, err := strconv.Atoi(chi.URLParam(r, "song-id"))
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid song id"})
		return
	}

	removeSongResp, err := c.roomService.RemoveSong(r.Context(), &room.RemoveSongParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
		SongID:   songID,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": removeSongResp})
}

type castVoteInput struct {
	SongID   int    `json:"song_id" validate:"required"`
	VoteType string `json:"vote_type" validate:"required,oneof=up down"`
}

func (c controller) castVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	castVoteResp, err := c.roomService.CastVote(r.Context(), &room.CastVoteParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
		SongID:   req.SongID,
		VoteType: room.VoteType(req.VoteType),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": castVoteResp})
}

func (c controller) initializePlayback(w http.ResponseWriter, r *http.Request) {
	playback, err := c.roomService.InitializePlayback(r.Context(), &room.InitializePlaybackParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playback})
}

type advancePlaybackInput struct {
	EndedSongID *int `json:"ended_song_id"`
}

func (c controller) advancePlayback(w http.ResponseWriter, r *http.Request) {
	var req advancePlaybackInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	advanceResp, err := c.roomService.Advance(r.Context(), &room.AdvanceParams{
		RoomID:      c.getRoomIdFromCtx(r.Context()),
		SenderID:    c.getUserIdFromCtx(r.Context()),
		EndedSongID: req.EndedSongID,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": advanceResp})
}

type setTransportInput struct {
	IsPlaying        *bool    `json:"is_playing"`
	PlaybackPosition *float64 `json:"playback_position" validate:"omitempty,gte=0"`
}

func (c controller) setTransport(w http.ResponseWriter, r *http.Request) {
	var req setTransportInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	playback, err := c.roomService.SetTransport(r.Context(), &room.SetTransportParams{
		RoomID:           c.getRoomIdFromCtx(r.Context()),
		SenderID:         c.getUserIdFromCtx(r.Context()),
		IsPlaying:        req.IsPlaying,
		PlaybackPosition: req.PlaybackPosition,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playback})
}

type playNowInput struct {
	SongID int `json:"song_id" validate:"required"`
}

func (c controller) playNow(w http.ResponseWriter, r *http.Request) {
	var req playNowInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	playNowResp, err := c.roomService.PlayNow(r.Context(), &room.PlayNowParams{
		RoomID:   c.getRoomIdFromCtx(r.Context()),
		SenderID: c.getUserIdFromCtx(r.Context()),
		SongID:   req.SongID,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playNowResp})
}
