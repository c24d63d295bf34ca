package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Session holds the state of one active call: the authenticated agent
// connection (upstream), the telephony media stream (downstream), and the
// stream token once the transport announces it.
type Session struct {
	ID      string
	CallSid string
	From    string

	upstream   *websocket.Conn
	downstream *websocket.Conn

	mu           sync.RWMutex
	streamSid    string
	createdAt    time.Time
	lastActivity time.Time

	// gorilla/websocket allows one concurrent writer per connection; the
	// keep-alive and the downstream ingest loop share the upstream socket
	upWriteMu   sync.Mutex
	downWriteMu sync.Mutex

	closeOnce sync.Once
}

// NewSession creates a session around an established connection pair
func NewSession(id, callSid, from string, upstream, downstream *websocket.Conn) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CallSid:      callSid,
		From:         from,
		upstream:     upstream,
		downstream:   downstream,
		createdAt:    now,
		lastActivity: now,
	}
}

// SetStreamSid records the stream token. It is set at most once; later
// calls are ignored and reported false.
func (s *Session) SetStreamSid(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamSid != "" {
		return false
	}
	s.streamSid = sid
	return true
}

// StreamSid returns the stream token, or "" while it is still unknown
func (s *Session) StreamSid() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSid
}

// Touch records traffic on the session for idle eviction
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the time of the most recent traffic
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// CreatedAt returns when the session was registered
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// WriteUpstreamJSON sends a control message to the agent. Self-generated
// traffic does not count as session activity: a keep-alive parked in the OS
// send buffer must not keep a silent call alive past the idle timeout.
func (s *Session) WriteUpstreamJSON(v interface{}) error {
	s.upWriteMu.Lock()
	defer s.upWriteMu.Unlock()
	return s.upstream.WriteJSON(v)
}

// WriteUpstreamBinary sends a raw audio frame to the agent
func (s *Session) WriteUpstreamBinary(frame []byte) error {
	s.upWriteMu.Lock()
	defer s.upWriteMu.Unlock()
	if err := s.upstream.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return err
	}
	s.Touch()
	return nil
}

// WriteDownstreamJSON sends an envelope to the telephony transport
func (s *Session) WriteDownstreamJSON(v interface{}) error {
	s.downWriteMu.Lock()
	defer s.downWriteMu.Unlock()
	if err := s.downstream.WriteJSON(v); err != nil {
		return err
	}
	s.Touch()
	return nil
}

// Close tears down both connections. Safe to call more than once; closing
// also unblocks any goroutine parked in a read on either socket.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.upstream.Close()
		_ = s.downstream.Close()
	})
}
