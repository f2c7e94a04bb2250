package room

type Room struct {
	HostID    string `redis:"host_id"`
	IsActive  bool   `redis:"is_active"`
	CreatedAt int64  `redis:"created_at"`
}

type Song struct {
	SourceID     string `redis:"source_id"`
	Title        string `redis:"title"`
	ThumbnailURL string `redis:"thumbnail_url"`
	DurationSec  int    `redis:"duration_sec"`
	AddedByID    string `redis:"added_by_id"`
	IsPlayed     bool   `redis:"is_played"`
}

// Player is the single authoritative playback record of a room.
// CurrentSongID of 0 means no song is cued.
type Player struct {
	CurrentSongID    int     `redis:"current_song_id"`
	IsPlaying        bool    `redis:"is_playing"`
	PlaybackPosition float64 `redis:"playback_position"`
	EverPlayed       bool    `redis:"ever_played"`
	UpdatedAt        int64   `redis:"updated_at"`
}

type Member struct {
	Username string `redis:"username"`
	JoinedAt int64  `redis:"joined_at"`
}
