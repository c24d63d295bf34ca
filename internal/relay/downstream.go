package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/pkg/metrics"
)

type downstreamState int

const (
	stateAwaitingStart downstreamState = iota
	stateActive
	stateTerminated
)

// runDownstream consumes the telephony media stream: records the stream
// token from the start event, batches inbound audio through the chunker,
// and forwards complete frames to the agent. Returning nil means the
// ordinary end-of-call stop event; any error means a disconnect.
func (sv *Supervisor) runDownstream(ctx context.Context, sess *Session) error {
	chunker := NewChunker(sv.frameSize)
	state := stateAwaitingStart

	for state != stateTerminated {
		_, msg, err := sess.downstream.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("caller stream closed: %w", err)
		}
		sess.Touch()

		var ev StreamEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			sv.logger.Warn("Skipping malformed stream event",
				zap.Error(err),
				zap.String("session_id", sess.ID),
			)
			metrics.RecordDecodeError()
			continue
		}

		switch ev.Event {
		case EventStart:
			if ev.Start == nil || ev.Start.StreamSid == "" {
				sv.logger.Warn("Start event without stream sid", zap.String("session_id", sess.ID))
				continue
			}
			if sess.SetStreamSid(ev.Start.StreamSid) {
				state = stateActive
				sv.logger.Info("Media stream started",
					zap.String("session_id", sess.ID),
					zap.String("stream_sid", ev.Start.StreamSid),
				)
			}

		case EventConnected:
			// handshake ack, nothing to relay

		case EventMedia:
			if state != stateActive || ev.Media == nil {
				metrics.RecordDiscardedFrame()
				continue
			}
			if ev.Media.Track != TrackInbound {
				metrics.RecordDiscardedFrame()
				continue
			}

			chunk, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				sv.logger.Warn("Skipping undecodable media payload",
					zap.Error(err),
					zap.String("session_id", sess.ID),
				)
				metrics.RecordDecodeError()
				continue
			}

			for _, frame := range chunker.Push(chunk) {
				if err := sess.WriteUpstreamBinary(frame); err != nil {
					return fmt.Errorf("forward audio to agent: %w", err)
				}
				metrics.RecordUpstreamFrame()
			}

		case EventStop:
			sv.logger.Info("Media stream stopped",
				zap.String("session_id", sess.ID),
				zap.Int("buffered_bytes", chunker.Buffered()),
			)
			state = stateTerminated

		default:
			sv.logger.Debug("Unknown stream event",
				zap.String("event", ev.Event),
				zap.String("session_id", sess.ID),
			)
		}
	}

	return nil
}
