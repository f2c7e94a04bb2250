package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/h30s/muzier/internal/repository/room"
	"github.com/h30s/muzier/pkg/events"
	"github.com/h30s/muzier/pkg/randstr"
	"github.com/h30s/muzier/pkg/videometa"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomClosed          = errors.New("room is closed")
	ErrSongNotFound        = errors.New("song not found")
	ErrSongIsCurrent       = errors.New("song is currently cued")
	ErrSongAlreadyQueued   = errors.New("song already in queue")
	ErrQueueLimitReached   = errors.New("queue limit reached")
	ErrMembersLimitReached = errors.New("members limit reached")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotParticipant      = errors.New("not a room participant")
	ErrStalePlayback       = errors.New("playback state changed concurrently")
	ErrInvalidVoteType     = errors.New("invalid vote type")
	ErrInvalidVideoURL     = errors.New("invalid video url")
	ErrVideoNotFound       = errors.New("video not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	UpdateRoomIsActive(ctx context.Context, roomID string, isActive bool) error
	// song
	NextSongID(context.Context, string) (int, error)
	SetSong(context.Context, *room.SetSongParams) error
	GetSong(context.Context, *room.GetSongParams) (room.Song, error)
	GetSongIDs(context.Context, string) ([]int, error)
	RemoveSong(context.Context, *room.RemoveSongParams) error
	// vote
	SetVote(context.Context, *room.SetVoteParams) error
	GetVote(context.Context, *room.GetVoteParams) (string, error)
	RemoveVote(context.Context, *room.RemoveVoteParams) error
	GetVotes(ctx context.Context, roomID string, songID int) (map[string]string, error)
	// player
	SetPlayerIfNotExists(context.Context, *room.SetPlayerParams) (bool, error)
	GetPlayer(context.Context, string) (room.Player, error)
	UpdatePlayer(context.Context, *room.UpdatePlayerParams) error
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	CommitPlayback(context.Context, *room.CommitPlaybackParams) error
	// member
	AddMember(context.Context, *room.AddMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	GetMemberIDs(context.Context, string) ([]string, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, roomID, userID string) error
	RemoveByConn(*websocket.Conn) error
	GetUserID(*websocket.Conn) (string, error)
	GetRoomConns(roomID string) []*websocket.Conn
	SendRoomJSON(roomID string, v any) []*websocket.Conn
}

type iMetadataResolver interface {
	Resolve(ctx context.Context, sourceID string) (*videometa.VideoData, error)
}

// EventPublisher is the optional domain-event sink. A nil publisher
// disables publishing entirely.
type EventPublisher interface {
	Publish(context.Context, *events.Event) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret        string
	MembersLimit  int
	QueueLimit    int
	RoomCodeLen   int
	// AllowAllControls opens transport control (pause, seek, play-now) to
	// every participant instead of the host only.
	AllowAllControls bool
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	resolver  iMetadataResolver
	publisher EventPublisher
	generator iGenerator
	logger    *slog.Logger
	config    Config

	roomLocks sync.Map
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, resolver iMetadataResolver, publisher EventPublisher, logger *slog.Logger, config Config) *service {
	if config.RoomCodeLen == 0 {
		config.RoomCodeLen = 6
	}

	s := service{
		roomRepo:  roomRepo,
		connRepo:  connRepo,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

// lockRoom serializes playback mutations per room. Operations on different
// rooms never contend.
func (s *service) lockRoom(roomID string) func() {
	v, _ := s.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}
