package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/internal/relay"
	"github.com/troikatech/voice-bridge/pkg/env"
	"github.com/troikatech/voice-bridge/pkg/logger"
)

// createWebSocketUpgrader creates a secure WebSocket upgrader with origin
// validation. Twilio's media stream connections carry no Origin header.
func createWebSocketUpgrader(cfg *env.Config) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// In development, allow all origins
			if cfg.AppEnv == "development" {
				return true
			}

			// Server-to-server connections send no Origin
			if origin == "" {
				return true
			}

			if cfg.PublicBaseURL != "" && origin == cfg.PublicBaseURL {
				return true
			}

			logger.Log.Warn("WebSocket connection rejected - invalid origin",
				zap.String("origin", origin),
				zap.String("remote_addr", r.RemoteAddr),
			)
			return false
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// MediaStream upgrades the telephony media-stream connection and hands it
// to the relay supervisor. The handler blocks for the life of the call.
func (h *Handler) MediaStream(c *gin.Context) {
	callSid := c.Query("CallSid")
	from := c.Query("From")

	upgrader := createWebSocketUpgrader(h.cfg)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade to WebSocket",
			zap.Error(err),
			zap.String("call_sid", callSid),
			zap.String("origin", c.GetHeader("Origin")),
			zap.String("remote_addr", c.Request.RemoteAddr),
		)
		return
	}
	defer conn.Close()

	h.logger.Info("Media stream connection established",
		zap.String("call_sid", callSid),
		logger.MaskPhoneIfPresent("from", from),
	)

	if err := h.supervisor.Run(c.Request.Context(), conn, callSid, from); err != nil {
		switch {
		case stderrors.Is(err, relay.ErrNoAPIKey):
			h.logger.Error("Agent credentials missing, dropping call",
				zap.String("call_sid", callSid),
			)
		case stderrors.Is(err, relay.ErrConfigRejected):
			h.logger.Error("Agent rejected session configuration",
				zap.Error(err),
				zap.String("call_sid", callSid),
			)
		case stderrors.Is(err, relay.ErrAgentError):
			h.logger.Error("Agent reported fatal error",
				zap.Error(err),
				zap.String("call_sid", callSid),
			)
		default:
			h.logger.Warn("Relay session ended with error",
				zap.Error(err),
				zap.String("call_sid", callSid),
			)
		}
	}
}
