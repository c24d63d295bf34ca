package twiml

import (
	"strings"
	"testing"
)

func TestConnectStream_Render(t *testing.T) {
	body, err := ConnectStream("wss://bridge.example.com/twilio?CallSid=CA123").Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := string(body)

	if !strings.HasPrefix(doc, "<?xml") {
		t.Error("document missing XML declaration")
	}

	for _, want := range []string{
		"<Response>",
		"<Connect>",
		`url="wss://bridge.example.com/twilio?CallSid=CA123"`,
		`track="inbound_track"`,
		`name="voice_agent_stream"`,
		"<Say>Connection ended.</Say>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	// The farewell must come after the stream hand-off
	if strings.Index(doc, "<Connect>") > strings.Index(doc, "<Say>") {
		t.Error("Say element rendered before Connect")
	}
}

func TestRender_EscapesStreamURL(t *testing.T) {
	body, err := ConnectStream("wss://h/twilio?a=1&b=2").Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(body), "a=1&amp;b=2") {
		t.Errorf("query ampersand not escaped:\n%s", body)
	}
}
