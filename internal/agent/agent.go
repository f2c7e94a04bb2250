package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/h30s/muzier/internal/service/room"
)

// seekTolerance is how far the local transport may drift from the
// authoritative position before the agent seeks.
const seekTolerance = 5.0

type iCoordinator interface {
	Snapshot(context.Context) (room.Snapshot, error)
	InitializePlayback(context.Context) (room.PlaybackState, error)
	Advance(ctx context.Context, endedSongID *int) (room.AdvanceResponse, error)
	SetTransport(ctx context.Context, isPlaying *bool, position *float64) (room.PlaybackState, error)
}

// Agent keeps a participant's local media transport in lockstep with the
// room's authoritative playback state. Local play and pause are optimistic;
// whenever the coordinator disagrees, the coordinator wins.
type Agent struct {
	coordinator iCoordinator
	transport   MediaTransport
	logger      *slog.Logger
	isHost      bool

	mu           sync.Mutex
	loadedSongID int
	lastEndedID  int
}

func NewAgent(coordinator iCoordinator, transport MediaTransport, isHost bool, logger *slog.Logger) *Agent {
	return &Agent{
		coordinator: coordinator,
		transport:   transport,
		logger:      logger,
		isHost:      isHost,
	}
}

// Mount brings the agent up on room entry. The host initializes playback if
// the room has none yet; everyone then renders the authoritative snapshot.
func (a *Agent) Mount(ctx context.Context) error {
	snapshot, err := a.coordinator.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	if a.isHost && snapshot.Playback.UpdatedAt == 0 {
		if _, err := a.coordinator.InitializePlayback(ctx); err != nil {
			return fmt.Errorf("failed to initialize playback: %w", err)
		}
		return a.Reconcile(ctx)
	}

	return a.apply(ctx, snapshot.Playback, append(snapshot.Queue, snapshot.History...))
}

// Reconcile re-fetches the authoritative state and applies it to the local
// transport. Safe to call from every ROOM_UPDATED signal and every poll
// tick.
func (a *Agent) Reconcile(ctx context.Context) error {
	snapshot, err := a.coordinator.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	return a.apply(ctx, snapshot.Playback, append(snapshot.Queue, snapshot.History...))
}

func (a *Agent) apply(ctx context.Context, playback room.PlaybackState, songs []room.Song) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if playback.CurrentSongID == nil {
		a.loadedSongID = 0
		return a.transport.Pause(ctx)
	}

	songID := *playback.CurrentSongID
	sourceID := ""
	for _, song := range songs {
		if song.ID == songID {
			sourceID = song.SourceID
			break
		}
	}
	if sourceID == "" {
		return fmt.Errorf("current song %d missing from room state", songID)
	}

	if songID != a.loadedSongID {
		if err := a.transport.Load(ctx, sourceID, playback.PlaybackPosition); err != nil {
			return fmt.Errorf("failed to load source: %w", err)
		}
		a.loadedSongID = songID
	} else if position, err := a.transport.Position(ctx); err == nil {
		if math.Abs(position-playback.PlaybackPosition) > seekTolerance {
			if err := a.transport.Seek(ctx, playback.PlaybackPosition); err != nil {
				return fmt.Errorf("failed to seek: %w", err)
			}
		}
	}

	if playback.IsPlaying {
		return a.transport.Play(ctx)
	}

	return a.transport.Pause(ctx)
}

// SetPlaying applies the play or pause gesture locally first, then asks the
// coordinator. A rejected gesture reconciles back to the authoritative
// state instead of surfacing as a broken player.
func (a *Agent) SetPlaying(ctx context.Context, playing bool) error {
	var optimisticErr error
	if playing {
		optimisticErr = a.transport.Play(ctx)
	} else {
		optimisticErr = a.transport.Pause(ctx)
	}
	if optimisticErr != nil {
		a.logger.DebugContext(ctx, "optimistic transport update failed", "err", optimisticErr)
	}

	if _, err := a.coordinator.SetTransport(ctx, &playing, nil); err != nil {
		if reconcileErr := a.Reconcile(ctx); reconcileErr != nil {
			a.logger.WarnContext(ctx, "failed to reconcile after rejected gesture", "err", reconcileErr)
		}
		return err
	}

	return nil
}

func (a *Agent) SeekTo(ctx context.Context, position float64) error {
	if err := a.transport.Seek(ctx, position); err != nil {
		a.logger.DebugContext(ctx, "optimistic seek failed", "err", err)
	}

	if _, err := a.coordinator.SetTransport(ctx, nil, &position); err != nil {
		if reconcileErr := a.Reconcile(ctx); reconcileErr != nil {
			a.logger.WarnContext(ctx, "failed to reconcile after rejected seek", "err", reconcileErr)
		}
		return err
	}

	return nil
}

// OnEnded reports the end of the loaded track. Both the media element's
// ended event and a near-end timer may fire for the same track; the guard
// collapses them into one advance. A Conflict answer means another agent
// already advanced, which is success, not failure.
func (a *Agent) OnEnded(ctx context.Context) error {
	a.mu.Lock()
	songID := a.loadedSongID
	if songID == 0 || songID == a.lastEndedID {
		a.mu.Unlock()
		return nil
	}
	a.lastEndedID = songID
	a.mu.Unlock()

	resp, err := a.coordinator.Advance(ctx, &songID)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return a.Reconcile(ctx)
		}

		// let a retry report the same track again
		a.mu.Lock()
		if a.lastEndedID == songID {
			a.lastEndedID = 0
		}
		a.mu.Unlock()

		return fmt.Errorf("failed to advance: %w", err)
	}

	return a.apply(ctx, resp.Playback, resp.Queue)
}
