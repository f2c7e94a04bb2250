package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/validator"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) error
	CloseRoom(context.Context, *room.CloseRoomParams) error
	GetSnapshot(context.Context, *room.GetSnapshotParams) (room.Snapshot, error)
	AddSong(context.Context, *room.AddSongParams) (room.AddSongResponse, error)
	RemoveSong(context.Context, *room.RemoveSongParams) (room.RemoveSongResponse, error)
	CastVote(context.Context, *room.CastVoteParams) (room.CastVoteResponse, error)
	InitializePlayback(context.Context, *room.InitializePlaybackParams) (room.PlaybackState, error)
	Advance(context.Context, *room.AdvanceParams) (room.AdvanceResponse, error)
	SetTransport(context.Context, *room.SetTransportParams) (room.PlaybackState, error)
	PlayNow(context.Context, *room.PlayNowParams) (room.PlayNowResponse, error)
	Connect(context.Context, *room.ConnectParams) error
	Disconnect(*websocket.Conn) error
	ParseJWT(tokenString string) (*room.Claims, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	return &controller{
		roomService: roomService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
}
