package relay

// Chunker accumulates raw audio bytes and emits fixed-size frames, matching
// the wire cadence the agent endpoint expects. Any remainder shorter than a
// frame stays buffered for the next push; a frame is never emitted short.
// Not safe for concurrent use: each session's downstream loop owns its own.
type Chunker struct {
	frameSize int
	buf       []byte
}

// NewChunker creates a chunker emitting frames of frameSize bytes
func NewChunker(frameSize int) *Chunker {
	return &Chunker{frameSize: frameSize}
}

// Push appends p to the accumulator and returns every complete frame now
// available, in order. Output depends only on the concatenation of all bytes
// pushed so far, not on how pushes were split.
func (c *Chunker) Push(p []byte) [][]byte {
	c.buf = append(c.buf, p...)

	var frames [][]byte
	for len(c.buf) >= c.frameSize {
		frame := make([]byte, c.frameSize)
		copy(frame, c.buf[:c.frameSize])
		frames = append(frames, frame)
		c.buf = c.buf[c.frameSize:]
	}
	return frames
}

// Buffered returns how many bytes are waiting for the next complete frame
func (c *Chunker) Buffered() int {
	return len(c.buf)
}
