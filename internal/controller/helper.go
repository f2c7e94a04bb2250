package controller

import (
	"errors"
	"net/http"

	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/rest"
)

func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrSongNotFound),
		errors.Is(err, room.ErrVideoNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, room.ErrRoomClosed):
		status = http.StatusGone
		message = err.Error()
	case errors.Is(err, room.ErrPermissionDenied),
		errors.Is(err, room.ErrNotParticipant):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, room.ErrStalePlayback),
		errors.Is(err, room.ErrSongIsCurrent),
		errors.Is(err, room.ErrSongAlreadyQueued),
		errors.Is(err, room.ErrQueueLimitReached),
		errors.Is(err, room.ErrMembersLimitReached):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, room.ErrInvalidVoteType),
		errors.Is(err, room.ErrInvalidVideoURL),
		errors.Is(err, room.ErrNoFieldsToUpdate):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, room.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
		message = err.Error()
	default:
		c.logger.ErrorContext(r.Context(), "unhandled service error", "err", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": message})
}
