package agent

import "context"

// MediaTransport abstracts the local media element the agent drives. All
// calls are idempotent from the agent's point of view; loading an already
// loaded source or pausing a paused transport must not error.
type MediaTransport interface {
	Load(ctx context.Context, sourceID string, position float64) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, position float64) error
	Position(ctx context.Context) (float64, error)
}
