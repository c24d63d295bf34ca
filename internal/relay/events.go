package relay

import "encoding/base64"

// Telephony media stream event names (inbound JSON envelopes)
const (
	EventStart     = "start"
	EventConnected = "connected"
	EventMedia     = "media"
	EventStop      = "stop"
	EventClear     = "clear"
)

// TrackInbound is the only media track relayed upstream
const TrackInbound = "inbound"

// StreamEvent is the envelope for every inbound media stream message.
// Unknown event names are a defined no-op, not an error.
type StreamEvent struct {
	Event string        `json:"event"`
	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
}

// StartPayload carries the stream token assigned by the telephony transport
type StartPayload struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid,omitempty"`
}

// MediaPayload carries one base64-encoded audio chunk
type MediaPayload struct {
	Track   string `json:"track,omitempty"`
	Payload string `json:"payload"`
}

// MediaMessage is the outbound media envelope sent back to the caller
type MediaMessage struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

// ClearMessage tells the telephony transport to flush queued playback
// (cooperative barge-in, not a disconnect)
type ClearMessage struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

// NewMediaMessage wraps raw agent audio for the caller's stream
func NewMediaMessage(streamSid string, audio []byte) MediaMessage {
	return MediaMessage{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media: MediaPayload{
			Payload: base64.StdEncoding.EncodeToString(audio),
		},
	}
}

// NewClearMessage builds a barge-in clear instruction for the caller's stream
func NewClearMessage(streamSid string) ClearMessage {
	return ClearMessage{
		Event:     EventClear,
		StreamSid: streamSid,
	}
}

// Agent event types received on the upstream connection
const (
	AgentEventUserStartedSpeaking = "UserStartedSpeaking"
	AgentEventError               = "Error"
)

// AgentEvent is the tag of every JSON text event from the agent endpoint.
// Everything except the barge-in and error kinds is informational.
type AgentEvent struct {
	Type string `json:"type"`
}

// KeepAliveMessage is the periodic liveness frame sent to the agent
type KeepAliveMessage struct {
	Type string `json:"type"`
}

// NewKeepAlive builds the upstream keep-alive frame
func NewKeepAlive() KeepAliveMessage {
	return KeepAliveMessage{Type: "KeepAlive"}
}

// SettingsMessage is the one-time session configuration sent to the agent
// right after the connection is established. It contains no per-call data,
// so one value is reused verbatim across sessions.
type SettingsMessage struct {
	Type  string        `json:"type"`
	Audio AudioSettings `json:"audio"`
	Agent AgentSettings `json:"agent"`
}

type AudioSettings struct {
	Input  AudioFormat `json:"input"`
	Output AudioFormat `json:"output"`
}

type AudioFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Container  string `json:"container,omitempty"`
}

type AgentSettings struct {
	Language string       `json:"language"`
	Listen   ListenConfig `json:"listen"`
	Think    ThinkConfig  `json:"think"`
	Speak    SpeakConfig  `json:"speak"`
	Greeting string       `json:"greeting"`
}

type ListenConfig struct {
	Provider Provider `json:"provider"`
}

type ThinkConfig struct {
	Provider Provider `json:"provider"`
	Prompt   string   `json:"prompt"`
}

type SpeakConfig struct {
	Provider Provider `json:"provider"`
}

type Provider struct {
	Type        string  `json:"type"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature,omitempty"`
	Voice       string  `json:"voice,omitempty"`
}
