package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/troikatech/voice-bridge/pkg/metrics"
)

// runKeepAlive injects a liveness frame into the agent connection at a
// fixed interval for the life of the session. A failed send means the
// upstream connection is gone.
func (sv *Supervisor) runKeepAlive(ctx context.Context, sess *Session) error {
	ticker := time.NewTicker(sv.keepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := sess.WriteUpstreamJSON(NewKeepAlive()); err != nil {
				return fmt.Errorf("send keepalive to agent: %w", err)
			}
			metrics.RecordKeepAlive()
		}
	}
}
