package main

import (
	"testing"

	"github.com/troikatech/voice-bridge/pkg/env"
)

func TestBuildAgentSettings(t *testing.T) {
	cfg := &env.Config{
		AgentLanguage:    "en",
		AgentListenModel: "nova-2",
		ThinkProvider:    "open_ai",
		ThinkModel:       "gpt-4o-mini",
		ThinkTemperature: 0.3,
		AgentPrompt:      "be brief",
		AgentGreeting:    "Hello!",
		AgentSpeakModel:  "aura-2-odysseus-en",
		AgentVoice:       "nova",
	}

	settings := buildAgentSettings(cfg)

	if settings.Type != "Settings" {
		t.Errorf("Type = %q, want Settings", settings.Type)
	}
	if settings.Audio.Input.Encoding != "mulaw" || settings.Audio.Input.SampleRate != 8000 {
		t.Errorf("input format = %+v, want 8kHz mulaw", settings.Audio.Input)
	}
	if settings.Audio.Output.Container != "none" {
		t.Errorf("output container = %q, want none", settings.Audio.Output.Container)
	}

	listen := settings.Agent.Listen.Provider
	if listen.Type != "deepgram" || listen.Model != "nova-2" {
		t.Errorf("listen provider = %+v, want deepgram nova-2", listen)
	}

	think := settings.Agent.Think
	if think.Provider.Model != "gpt-4o-mini" || think.Provider.Temperature != 0.3 {
		t.Errorf("think provider = %+v, want configured model and temperature", think.Provider)
	}
	if think.Prompt != "be brief" {
		t.Errorf("think prompt = %q, want configured prompt", think.Prompt)
	}

	// Every configured speech field must reach the payload, voice included
	speak := settings.Agent.Speak.Provider
	if speak.Type != "deepgram" || speak.Model != "aura-2-odysseus-en" || speak.Voice != "nova" {
		t.Errorf("speak provider = %+v, want deepgram aura-2-odysseus-en with voice nova", speak)
	}

	if settings.Agent.Greeting != "Hello!" {
		t.Errorf("greeting = %q, want configured greeting", settings.Agent.Greeting)
	}
}
