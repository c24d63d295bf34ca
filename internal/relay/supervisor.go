package relay

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/pkg/metrics"
)

const (
	// DefaultFrameSize batches 20 telephony media frames (20 x 160 bytes of
	// 8kHz mu-law, 400ms) per upstream send
	DefaultFrameSize = 20 * 160

	// DefaultKeepAliveInterval between upstream liveness frames
	DefaultKeepAliveInterval = 5 * time.Second
)

// Supervisor owns the lifetime of one call: it opens the agent connection,
// registers the session, races the three relay loops, and tears everything
// down when the first of them finishes.
type Supervisor struct {
	registry       *Registry
	opener         Opener
	frameSize      int
	keepAliveEvery time.Duration
	logger         *zap.Logger
}

// NewSupervisor creates a supervisor; zero frameSize/keepAliveEvery select
// the defaults.
func NewSupervisor(registry *Registry, opener Opener, frameSize int, keepAliveEvery time.Duration, logger *zap.Logger) *Supervisor {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	if keepAliveEvery <= 0 {
		keepAliveEvery = DefaultKeepAliveInterval
	}
	return &Supervisor{
		registry:       registry,
		opener:         opener,
		frameSize:      frameSize,
		keepAliveEvery: keepAliveEvery,
		logger:         logger,
	}
}

// Run relays one call until either side disconnects or an unrecoverable
// error occurs. It blocks for the life of the session and always leaves
// both connections closed and the registry entry removed. If the upstream
// connection cannot be opened no session is ever registered, and the
// downstream connection is left for the caller to close.
func (sv *Supervisor) Run(ctx context.Context, downstream *websocket.Conn, callSid, from string) error {
	upstream, err := sv.opener.Open(ctx)
	if err != nil {
		return err
	}

	sess := NewSession(uuid.NewString(), callSid, from, upstream, downstream)
	sv.registry.Put(sess)
	metrics.RecordSessionStart()

	sv.logger.Info("Relay session started",
		zap.String("session_id", sess.ID),
		zap.String("call_sid", callSid),
	)

	defer func() {
		sess.Close()
		sv.registry.Remove(sess.ID)
		metrics.RecordSessionEnd()
		sv.logger.Info("Relay session closed", zap.String("session_id", sess.ID))
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Race the three loops; the channel is buffered so the losers never
	// block after cancellation.
	results := make(chan error, 3)
	go func() { results <- sv.runDownstream(ctx, sess) }()
	go func() { results <- sv.runUpstream(ctx, sess) }()
	go func() { results <- sv.runKeepAlive(ctx, sess) }()

	err = <-results
	cancel()
	// Closing both sockets unblocks the loops still parked in a read
	sess.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		sv.logger.Info("Relay session ending",
			zap.String("session_id", sess.ID),
			zap.String("reason", err.Error()),
		)
		return err
	}
	return nil
}
