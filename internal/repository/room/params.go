package room

type SetRoomParams struct {
	RoomID    string
	HostID    string
	CreatedAt int64
}

type SetSongParams struct {
	RoomID       string
	SongID       int
	SourceID     string
	Title        string
	ThumbnailURL string
	DurationSec  int
	AddedByID    string
	IsPlayed     bool
}

type RemoveSongParams struct {
	RoomID string
	SongID int
}

// CommitPlaybackParams describes a whole playback transition: the songs
// flipping their played flag and the new player record land together.
type CommitPlaybackParams struct {
	RoomID           string
	CurrentSongID    int
	IsPlaying        bool
	PlaybackPosition float64
	EverPlayed       bool
	UpdatedAt        int64
	MarkPlayed       []int
	MarkUnplayed     []int
}

type GetSongParams struct {
	RoomID string
	SongID int
}

type SetVoteParams struct {
	RoomID   string
	SongID   int
	UserID   string
	VoteType string
}

type RemoveVoteParams struct {
	RoomID string
	SongID int
	UserID string
}

type GetVoteParams struct {
	RoomID string
	SongID int
	UserID string
}

type SetPlayerParams struct {
	RoomID           string
	CurrentSongID    int
	IsPlaying        bool
	PlaybackPosition float64
	EverPlayed       bool
	UpdatedAt        int64
}

type UpdatePlayerParams struct {
	RoomID           string
	CurrentSongID    int
	IsPlaying        bool
	PlaybackPosition float64
	EverPlayed       bool
	UpdatedAt        int64
}

// UpdatePlayerStateParams is a partial update: nil fields are left untouched.
type UpdatePlayerStateParams struct {
	RoomID           string
	IsPlaying        *bool
	PlaybackPosition *float64
	EverPlayed       *bool
	UpdatedAt        int64
}

type AddMemberParams struct {
	RoomID   string
	UserID   string
	Username string
	JoinedAt int64
}

type RemoveMemberParams struct {
	RoomID string
	UserID string
}

type GetMemberParams struct {
	RoomID string
	UserID string
}
