package protocol

// CaptureLayer sits at the bottom of a stack and keeps every encoded
// frame. Partial encodes are joined until last.
type CaptureLayer struct {
	Base
	frames  [][]byte
	partial []byte
}

func NewCaptureLayer() *CaptureLayer {
	return &CaptureLayer{}
}

func (l *CaptureLayer) Encode(buf []byte, last bool) {
	l.partial = append(l.partial, buf...)
	if !last {
		return
	}
	l.frames = append(l.frames, l.partial)
	l.partial = nil
	l.Base.Encode(l.frames[len(l.frames)-1], true)
}

// Frames returns the completed frames captured so far.
func (l *CaptureLayer) Frames() [][]byte { return l.frames }

// Take returns the captured frames and forgets them.
func (l *CaptureLayer) Take() [][]byte {
	f := l.frames
	l.frames = nil
	return f
}

// Last returns the most recent frame, or nil.
func (l *CaptureLayer) Last() []byte {
	if len(l.frames) == 0 {
		return nil
	}
	return l.frames[len(l.frames)-1]
}
