package protocol

import "github.com/danmuck/storedbg/internal/observability"

// BufferLayer collects partial encodes and passes one whole frame down on
// last. Decode is forwarded untouched.
type BufferLayer struct {
	Base
	buf []byte
}

func NewBufferLayer() *BufferLayer {
	return &BufferLayer{}
}

func (l *BufferLayer) Encode(buf []byte, last bool) {
	l.buf = append(l.buf, buf...)
	if !last {
		return
	}
	frame := l.buf
	l.buf = nil
	observability.RecordLayer("buffer", observability.DirectionEncode, len(frame), true)
	l.Base.Encode(frame, true)
}

// Pending is the number of bytes waiting for the end of the frame.
func (l *BufferLayer) Pending() int { return len(l.buf) }

// Reset drops a partially encoded frame.
func (l *BufferLayer) Reset() { l.buf = nil }
