package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Opener establishes an authenticated, configured streaming connection to
// the voice agent endpoint. It exists as an interface so the supervisor can
// be exercised against a local agent in tests.
type Opener interface {
	Open(ctx context.Context) (*websocket.Conn, error)
}

// AgentConfig describes how to reach and configure the agent endpoint
type AgentConfig struct {
	URL         string
	APIKey      string
	DialTimeout time.Duration
	Settings    SettingsMessage
}

// AgentClient dials the agent endpoint. The bearer credential travels as a
// websocket subprotocol pair ("token", key), never inside a payload.
type AgentClient struct {
	cfg    AgentConfig
	logger *zap.Logger
}

// NewAgentClient creates a client for the configured agent endpoint
func NewAgentClient(cfg AgentConfig, logger *zap.Logger) *AgentClient {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &AgentClient{cfg: cfg, logger: logger}
}

// Open establishes the streaming connection and sends the one-time session
// settings. One failed attempt fails the call setup; retry policy belongs
// to the caller.
func (a *AgentClient) Open(ctx context.Context) (*websocket.Conn, error) {
	if a.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: a.cfg.DialTimeout,
		Subprotocols:     []string{"token", a.cfg.APIKey},
	}

	conn, _, err := dialer.DialContext(ctx, a.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to agent endpoint: %w", err)
	}

	if err := conn.WriteJSON(a.cfg.Settings); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrConfigRejected, err)
	}

	a.logger.Info("Agent session configured",
		zap.String("url", a.cfg.URL),
		zap.String("language", a.cfg.Settings.Agent.Language),
	)

	return conn, nil
}
