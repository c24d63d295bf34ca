package relay

import "errors"

var (
	// ErrNoAPIKey means no upstream credential is configured; session
	// creation fails before any connection is attempted.
	ErrNoAPIKey = errors.New("agent API key is not configured")

	// ErrConfigRejected means the agent endpoint refused the one-time
	// session settings (observed as an early close while sending them).
	ErrConfigRejected = errors.New("agent rejected session settings")

	// ErrAgentError means the agent reported an error event mid-stream.
	ErrAgentError = errors.New("agent reported an error event")
)
