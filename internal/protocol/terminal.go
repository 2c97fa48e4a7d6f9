package protocol

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/danmuck/storedbg/internal/observability"
)

const (
	TermEsc      = 0x1b // ESC
	TermEscStart = '_'  // APC
	TermEscEnd   = '\\' // ST

	MaxBuffer = 1024
)

type terminalState uint8

const (
	stateNormal terminalState = iota
	stateNormalEsc
	stateDebug
	stateDebugEsc
	// An overflowed frame is swallowed up to its end marker.
	stateDiscard
	stateDiscardEsc
)

// TerminalLayer extracts debugger frames, delimited by ESC _ and ESC \,
// from a terminal stream. Everything outside a frame goes to NonDebug.
// Unlike the escape layer, its state spans Decode calls.
type TerminalLayer struct {
	Base

	// NonDebug receives bytes outside debug frames. nil discards them.
	NonDebug io.Writer
	// Out receives encoded frames when there is no lower layer.
	Out io.Writer
	// MaxBuffer bounds one decoded frame. Zero means the package default.
	MaxBuffer int

	state    terminalState
	frame    []byte
	encoding bool
	log      zerolog.Logger
}

func NewTerminalLayer(nonDebug, out io.Writer) *TerminalLayer {
	return &TerminalLayer{
		NonDebug: nonDebug,
		Out:      out,
		log:      observability.Component("terminal"),
	}
}

func (l *TerminalLayer) limit() int {
	if l.MaxBuffer > 0 {
		return l.MaxBuffer
	}
	return MaxBuffer
}

func (l *TerminalLayer) Decode(buf []byte) {
	var plain []byte
	for _, c := range buf {
		switch l.state {
		case stateNormal:
			if c == TermEsc {
				l.state = stateNormalEsc
			} else {
				plain = append(plain, c)
			}
		case stateNormalEsc:
			switch c {
			case TermEscStart:
				l.nonDebug(plain)
				plain = plain[:0]
				l.frame = l.frame[:0]
				l.state = stateDebug
			case TermEsc:
				plain = append(plain, TermEsc)
			default:
				plain = append(plain, TermEsc, c)
				l.state = stateNormal
			}
		case stateDebug:
			if c == TermEsc {
				l.state = stateDebugEsc
			} else {
				l.push(c)
			}
		case stateDebugEsc:
			switch c {
			case TermEscEnd:
				l.state = stateNormal
				l.deliver()
			case TermEscStart:
				l.frame = l.frame[:0]
				l.state = stateDebug
			default:
				l.state = stateDebug
				if l.push(TermEsc) {
					l.push(c)
				}
			}
		case stateDiscard:
			if c == TermEsc {
				l.state = stateDiscardEsc
			}
		case stateDiscardEsc:
			switch c {
			case TermEscEnd:
				l.state = stateNormal
			case TermEscStart:
				l.frame = l.frame[:0]
				l.state = stateDebug
			case TermEsc:
			default:
				l.state = stateDiscard
			}
		}
	}
	l.nonDebug(plain)
}

// push appends to the frame. On overflow the frame is dropped and the rest
// of it discarded. It reports whether the frame is still being collected.
func (l *TerminalLayer) push(c byte) bool {
	if len(l.frame) >= l.limit() {
		l.log.Warn().Int("limit", l.limit()).Msg("terminal: frame too large, dropped")
		observability.RecordLayerDrop("terminal", "overflow")
		l.frame = l.frame[:0]
		l.state = stateDiscard
		return false
	}
	l.frame = append(l.frame, c)
	return true
}

func (l *TerminalLayer) deliver() {
	observability.RecordLayer("terminal", observability.DirectionDecode, len(l.frame), true)
	frame := l.frame
	// The upper layer may keep or rewrite the frame, so collection restarts
	// in a fresh buffer.
	l.frame = make([]byte, 0, cap(frame))
	l.Base.Decode(frame)
}

func (l *TerminalLayer) nonDebug(b []byte) {
	if len(b) == 0 || l.NonDebug == nil {
		return
	}
	if _, err := l.NonDebug.Write(b); err != nil {
		l.log.Debug().Err(err).Msg("terminal: non-debug write failed")
	}
}

// Encode wraps a frame in start and end markers. The start marker goes out
// with the first chunk and the end marker with the last.
func (l *TerminalLayer) Encode(buf []byte, last bool) {
	out := make([]byte, 0, len(buf)+4)
	if !l.encoding {
		out = append(out, TermEsc, TermEscStart)
		l.encoding = true
	}
	out = append(out, buf...)
	if last {
		out = append(out, TermEsc, TermEscEnd)
		l.encoding = false
	}
	observability.RecordLayer("terminal", observability.DirectionEncode, len(out), last)
	l.write(out, last)
}

// Passthrough writes non-debug output, bypassing the frame markers. It must
// not be called halfway through an encoded frame.
func (l *TerminalLayer) Passthrough(buf []byte) {
	if l.encoding {
		l.log.Warn().Msg("terminal: passthrough inside a debug frame")
	}
	l.write(buf, true)
}

func (l *TerminalLayer) write(b []byte, last bool) {
	if l.Down() != nil {
		l.Base.Encode(b, last)
		return
	}
	if l.Out == nil {
		l.log.Debug().Err(ErrNoSink).Int("bytes", len(b)).Msg("terminal: output dropped")
		return
	}
	if _, err := l.Out.Write(b); err != nil {
		l.log.Warn().Err(err).Msg("terminal: write failed")
	}
}
