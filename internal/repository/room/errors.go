package room

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrSongNotFound   = errors.New("song not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrVoteNotFound   = errors.New("vote not found")
)
