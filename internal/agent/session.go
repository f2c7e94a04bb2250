package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	minPollInterval     = 3 * time.Second
	maxPollInterval     = 5 * time.Second
	defaultPollInterval = 4 * time.Second
)

type iUpdatesDialer interface {
	DialUpdates(context.Context) (*websocket.Conn, error)
}

// Session runs an agent's event loop for one room visit: it holds the
// update channel open, heartbeats it, reconciles on every ROOM_UPDATED
// signal and degrades to interval polling whenever the channel is down.
// The degradation is silent and the channel is redialed continuously.
type Session struct {
	agent        *Agent
	dialer       iUpdatesDialer
	pollInterval time.Duration
	logger       *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(agent *Agent, dialer iUpdatesDialer, pollInterval time.Duration, logger *slog.Logger) *Session {
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}
	if pollInterval < minPollInterval {
		pollInterval = minPollInterval
	}
	if pollInterval > maxPollInterval {
		pollInterval = maxPollInterval
	}

	return &Session{
		agent:        agent,
		dialer:       dialer,
		pollInterval: pollInterval,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Close stops the loop and waits for it to release its connection and
// timers. Safe to call more than once, or before Start.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}

		s.cancel()
		<-s.done
	})
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	if err := s.agent.Mount(ctx); err != nil {
		s.logger.WarnContext(ctx, "mount failed, relying on polling", "err", err)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dialer.DialUpdates(ctx)
		if err == nil {
			s.consume(ctx, conn)
			continue
		}

		s.logger.DebugContext(ctx, "updates channel unavailable, polling", "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
			if err := s.agent.Reconcile(ctx); err != nil && ctx.Err() == nil {
				s.logger.DebugContext(ctx, "poll reconcile failed", "err", err)
			}
		}
	}
}

// consume reads the signal channel until it dies. The channel is considered
// dead when nothing arrives within the liveness window, which bounds how
// stale a client with a silently broken connection can get.
func (s *Session) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// reconcile immediately: signals sent while disconnected are gone
	if err := s.agent.Reconcile(ctx); err != nil {
		s.logger.DebugContext(ctx, "reconcile on connect failed", "err", err)
	}

	// at least one server ping cadence, otherwise a quiet room looks dead
	deadline := 2 * s.pollInterval
	if deadline < 30*time.Second {
		deadline = 30 * time.Second
	}
	conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(deadline))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	stopHeartbeat := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-stopHeartbeat:
				return
			case <-ticker.C:
				if err := conn.WriteJSON(map[string]string{"type": "ALIVE"}); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()
	defer close(stopHeartbeat)

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			s.logger.DebugContext(ctx, "updates channel closed", "err", err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(deadline))

		if msg.Type == "ROOM_UPDATED" {
			if err := s.agent.Reconcile(ctx); err != nil && ctx.Err() == nil {
				s.logger.DebugContext(ctx, "reconcile failed", "err", err)
			}
		}
	}
}
