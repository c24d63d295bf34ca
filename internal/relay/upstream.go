package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/pkg/metrics"
)

// runUpstream consumes the agent's stream: JSON text events and raw binary
// audio interleaved on one socket. Audio is wrapped in the outbound media
// envelope; the "user started speaking" event becomes a barge-in clear.
// Frames arriving before the stream token is known cannot be addressed and
// are dropped (accepted race at call setup).
func (sv *Supervisor) runUpstream(ctx context.Context, sess *Session) error {
	for {
		msgType, msg, err := sess.upstream.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("agent stream closed: %w", err)
		}
		sess.Touch()

		switch msgType {
		case websocket.TextMessage:
			var ev AgentEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				sv.logger.Warn("Skipping malformed agent event",
					zap.Error(err),
					zap.String("session_id", sess.ID),
				)
				continue
			}

			switch ev.Type {
			case AgentEventUserStartedSpeaking:
				sid := sess.StreamSid()
				if sid == "" {
					sv.logger.Debug("Barge-in before stream start, dropped",
						zap.String("session_id", sess.ID),
					)
					continue
				}
				if err := sess.WriteDownstreamJSON(NewClearMessage(sid)); err != nil {
					return fmt.Errorf("send clear to caller: %w", err)
				}
				metrics.RecordClear()
				sv.logger.Info("Sent barge-in clear",
					zap.String("session_id", sess.ID),
					zap.String("stream_sid", sid),
				)

			case AgentEventError:
				return fmt.Errorf("%w: %s", ErrAgentError, msg)

			default:
				sv.logger.Debug("Agent event",
					zap.String("type", ev.Type),
					zap.String("session_id", sess.ID),
				)
			}

		case websocket.BinaryMessage:
			sid := sess.StreamSid()
			if sid == "" {
				metrics.RecordDiscardedFrame()
				continue
			}
			if err := sess.WriteDownstreamJSON(NewMediaMessage(sid, msg)); err != nil {
				return fmt.Errorf("send media to caller: %w", err)
			}
			metrics.RecordDownstreamFrame()
		}
	}
}
