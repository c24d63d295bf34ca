package twiml

import (
	"encoding/xml"
)

// Response is the TwiML document returned from the voice webhook.
// Element order matters: Twilio executes verbs top to bottom, so the
// <Say> only runs if the <Connect> stream ends.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Connect *Connect `xml:"Connect,omitempty"`
	Say     string   `xml:"Say,omitempty"`
}

// Connect hands the call over to a bidirectional media stream
type Connect struct {
	Stream *Stream `xml:"Stream"`
}

// Stream describes where Twilio should open the media stream websocket
type Stream struct {
	URL   string `xml:"url,attr"`
	Track string `xml:"track,attr,omitempty"`
	Name  string `xml:"name,attr,omitempty"`
}

// ConnectStream builds the standard response for an inbound call:
// connect the media stream, then announce the end of the call if the
// stream is ever torn down by the server.
func ConnectStream(streamURL string) *Response {
	return &Response{
		Connect: &Connect{
			Stream: &Stream{
				URL:   streamURL,
				Track: "inbound_track",
				Name:  "voice_agent_stream",
			},
		},
		Say: "Connection ended.",
	}
}

// Render marshals the document with the XML declaration Twilio expects
func (r *Response) Render() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
