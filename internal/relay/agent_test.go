package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestAgentClient_OpenWithoutKey(t *testing.T) {
	client := NewAgentClient(AgentConfig{URL: "wss://example.invalid/agent"}, zap.NewNop())

	_, err := client.Open(context.Background())
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Open() = %v, want ErrNoAPIKey", err)
	}
}

func TestAgentClient_OpenSendsCredentialAndSettings(t *testing.T) {
	type handshake struct {
		protocols string
		settings  SettingsMessage
	}
	got := make(chan handshake, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protocols := r.Header.Get("Sec-WebSocket-Protocol")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var settings SettingsMessage
		if err := json.Unmarshal(msg, &settings); err != nil {
			return
		}
		got <- handshake{protocols: protocols, settings: settings}
	}))
	defer srv.Close()

	settings := SettingsMessage{
		Type: "Settings",
		Audio: AudioSettings{
			Input:  AudioFormat{Encoding: "mulaw", SampleRate: 8000},
			Output: AudioFormat{Encoding: "mulaw", SampleRate: 8000, Container: "none"},
		},
		Agent: AgentSettings{
			Language: "en",
			Listen:   ListenConfig{Provider: Provider{Type: "deepgram", Model: "nova-2"}},
			Think:    ThinkConfig{Provider: Provider{Type: "open_ai", Model: "gpt-4o-mini"}, Prompt: "be brief"},
			Speak:    SpeakConfig{Provider: Provider{Type: "deepgram", Model: "aura-2-odysseus-en", Voice: "nova"}},
			Greeting: "Hello!",
		},
	}

	client := NewAgentClient(AgentConfig{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		APIKey:   "sekrit",
		Settings: settings,
	}, zap.NewNop())

	conn, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	defer conn.Close()

	select {
	case h := <-got:
		if !strings.Contains(h.protocols, "token") || !strings.Contains(h.protocols, "sekrit") {
			t.Errorf("handshake protocols = %q, want token and key", h.protocols)
		}
		if h.settings.Type != "Settings" {
			t.Errorf("settings type = %q, want Settings", h.settings.Type)
		}
		if h.settings.Audio.Input.Encoding != "mulaw" || h.settings.Audio.Input.SampleRate != 8000 {
			t.Errorf("settings input format = %+v, want 8kHz mulaw", h.settings.Audio.Input)
		}
		if h.settings.Agent.Greeting != "Hello!" {
			t.Errorf("settings greeting = %q, want Hello!", h.settings.Agent.Greeting)
		}
		speak := h.settings.Agent.Speak.Provider
		if speak.Model != "aura-2-odysseus-en" || speak.Voice != "nova" {
			t.Errorf("settings speak provider = %+v, want model and voice preserved on the wire", speak)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for agent-side handshake")
	}
}

func TestAgentClient_OpenDialFailure(t *testing.T) {
	client := NewAgentClient(AgentConfig{
		URL:         "ws://127.0.0.1:1/agent",
		APIKey:      "sekrit",
		DialTimeout: 500 * time.Millisecond,
	}, zap.NewNop())

	if _, err := client.Open(context.Background()); err == nil {
		t.Error("Open() = nil, want dial error")
	}
}
