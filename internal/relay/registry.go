package relay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/pkg/metrics"
)

// Registry is the process-wide table of active sessions. It is the only
// cross-session shared mutable state; a single mutex is enough at expected
// call volumes.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Put registers a fully constructed session. Callers must only register
// sessions whose connections are already established.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by id. A hit counts as activity.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Remove deletes a session entry. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes and returns every session idle for longer than maxIdle
func (r *Registry) Sweep(maxIdle time.Duration) []*Session {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var swept []*Session
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			swept = append(swept, s)
			delete(r.sessions, id)
		}
	}
	return swept
}

// StartSweeper evicts idle sessions on a fixed period until ctx is done.
// Closing a swept session's connections unblocks its supervisor, which
// then runs its normal (idempotent) cleanup.
func (r *Registry) StartSweeper(ctx context.Context, interval, maxIdle time.Duration, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range r.Sweep(maxIdle) {
					log.Warn("Evicting idle session",
						zap.String("session_id", s.ID),
						zap.String("call_sid", s.CallSid),
						zap.Time("last_activity", s.LastActivity()),
					)
					s.Close()
					metrics.RecordSweepEviction()
				}
			}
		}
	}()
}
