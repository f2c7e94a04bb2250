package room

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

type Song struct {
	ID           int      `json:"id"`
	SourceID     string   `json:"source_id"`
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnail_url"`
	DurationSec  int      `json:"duration_sec"`
	AddedByID    string   `json:"added_by_id"`
	IsPlayed     bool     `json:"is_played"`
	Score        int      `json:"score"`
	UserVote     VoteType `json:"user_vote,omitempty"`
}

// PlaybackState is the authoritative playback record of a room.
// CurrentSongID is nil when nothing is cued (the idle state).
type PlaybackState struct {
	CurrentSongID    *int    `json:"current_song_id"`
	IsPlaying        bool    `json:"is_playing"`
	PlaybackPosition float64 `json:"playback_position"`
	UpdatedAt        int64   `json:"updated_at"`
}

type Participant struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	JoinedAt int64  `json:"joined_at"`
	IsHost   bool   `json:"is_host"`
}

type Snapshot struct {
	RoomID       string        `json:"room_id"`
	HostID       string        `json:"host_id"`
	IsActive     bool          `json:"is_active"`
	Queue        []Song        `json:"queue"`
	History      []Song        `json:"history"`
	Playback     PlaybackState `json:"playback"`
	Participants []Participant `json:"participants"`
}
