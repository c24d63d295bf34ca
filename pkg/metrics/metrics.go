package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Metrics holds relay-wide counters
type Metrics struct {
	mu sync.RWMutex

	// Session metrics
	SessionsStarted int64
	SessionsEnded   int64
	ActiveSessions  int64
	SweepEvictions  int64

	// Relay traffic metrics
	FramesUpstream   int64 // audio frames forwarded to the agent
	FramesDownstream int64 // agent audio frames forwarded to the caller
	ClearsSent       int64 // barge-in clear messages sent downstream
	KeepAlivesSent   int64

	// Per-frame error metrics (non-fatal)
	DecodeErrors    int64
	DiscardedFrames int64 // non-inbound tracks and media before stream start

	StartTime time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// RecordSessionStart records a new relay session
func RecordSessionStart() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.SessionsStarted++
	globalMetrics.ActiveSessions++
}

// RecordSessionEnd records a finished relay session
func RecordSessionEnd() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.SessionsEnded++
	if globalMetrics.ActiveSessions > 0 {
		globalMetrics.ActiveSessions--
	}
}

// RecordSweepEviction records a session removed by the idle sweeper
func RecordSweepEviction() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.SweepEvictions++
}

// RecordUpstreamFrame records an audio frame sent to the agent
func RecordUpstreamFrame() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.FramesUpstream++
}

// RecordDownstreamFrame records an agent audio frame sent to the caller
func RecordDownstreamFrame() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.FramesDownstream++
}

// RecordClear records a barge-in clear message
func RecordClear() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.ClearsSent++
}

// RecordKeepAlive records a keep-alive sent to the agent
func RecordKeepAlive() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.KeepAlivesSent++
}

// RecordDecodeError records a skipped malformed inbound frame
func RecordDecodeError() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.DecodeErrors++
}

// RecordDiscardedFrame records a media frame dropped without relay
func RecordDiscardedFrame() {
	globalMetrics.mu.Lock()
	defer globalMetrics.mu.Unlock()
	globalMetrics.DiscardedFrames++
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	uptime := time.Since(globalMetrics.StartTime)

	return map[string]interface{}{
		"uptime_seconds": uptime.Seconds(),
		"sessions": map[string]interface{}{
			"started":         globalMetrics.SessionsStarted,
			"ended":           globalMetrics.SessionsEnded,
			"active":          globalMetrics.ActiveSessions,
			"sweep_evictions": globalMetrics.SweepEvictions,
		},
		"relay": map[string]interface{}{
			"frames_upstream":   globalMetrics.FramesUpstream,
			"frames_downstream": globalMetrics.FramesDownstream,
			"clears_sent":       globalMetrics.ClearsSent,
			"keepalives_sent":   globalMetrics.KeepAlivesSent,
		},
		"frame_errors": map[string]interface{}{
			"decode_errors":    globalMetrics.DecodeErrors,
			"discarded_frames": globalMetrics.DiscardedFrames,
		},
	}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func GetPrometheusMetrics() string {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	var output string

	output += "# HELP bridge_uptime_seconds Server uptime in seconds\n"
	output += "# TYPE bridge_uptime_seconds gauge\n"
	output += fmt.Sprintf("bridge_uptime_seconds %.2f\n", time.Since(globalMetrics.StartTime).Seconds())

	output += "# HELP bridge_sessions_active Currently active relay sessions\n"
	output += "# TYPE bridge_sessions_active gauge\n"
	output += fmt.Sprintf("bridge_sessions_active %d\n", globalMetrics.ActiveSessions)

	output += "# HELP bridge_sessions_total Relay sessions by lifecycle event\n"
	output += "# TYPE bridge_sessions_total counter\n"
	output += fmt.Sprintf("bridge_sessions_total{event=\"started\"} %d\n", globalMetrics.SessionsStarted)
	output += fmt.Sprintf("bridge_sessions_total{event=\"ended\"} %d\n", globalMetrics.SessionsEnded)
	output += fmt.Sprintf("bridge_sessions_total{event=\"swept\"} %d\n", globalMetrics.SweepEvictions)

	output += "# HELP bridge_frames_total Audio frames relayed by direction\n"
	output += "# TYPE bridge_frames_total counter\n"
	output += fmt.Sprintf("bridge_frames_total{direction=\"upstream\"} %d\n", globalMetrics.FramesUpstream)
	output += fmt.Sprintf("bridge_frames_total{direction=\"downstream\"} %d\n", globalMetrics.FramesDownstream)

	output += "# HELP bridge_clears_sent_total Barge-in clear messages sent to callers\n"
	output += "# TYPE bridge_clears_sent_total counter\n"
	output += fmt.Sprintf("bridge_clears_sent_total %d\n", globalMetrics.ClearsSent)

	output += "# HELP bridge_keepalives_sent_total Keep-alive messages sent to the agent\n"
	output += "# TYPE bridge_keepalives_sent_total counter\n"
	output += fmt.Sprintf("bridge_keepalives_sent_total %d\n", globalMetrics.KeepAlivesSent)

	output += "# HELP bridge_frame_errors_total Inbound frames skipped or discarded\n"
	output += "# TYPE bridge_frame_errors_total counter\n"
	output += fmt.Sprintf("bridge_frame_errors_total{reason=\"decode\"} %d\n", globalMetrics.DecodeErrors)
	output += fmt.Sprintf("bridge_frame_errors_total{reason=\"discarded\"} %d\n", globalMetrics.DiscardedFrames)

	return output
}
