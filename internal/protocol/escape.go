package protocol

import "github.com/danmuck/storedbg/internal/observability"

const (
	Esc     = 0x7f // DEL
	EscMask = 0x1f // data bits of the escaped byte
)

// AsciiEscapeLayer makes frames safe for text terminals. Control bytes are
// sent as Esc followed by the byte with 0x40 set, and Esc itself as Esc Esc.
// Escape state does not carry over between Decode calls.
type AsciiEscapeLayer struct {
	Base
}

func NewAsciiEscapeLayer() *AsciiEscapeLayer {
	return &AsciiEscapeLayer{}
}

// Decode unescapes buf in place and forwards the result.
func (l *AsciiEscapeLayer) Decode(buf []byte) {
	out := buf[:0]
	esc := false
	for _, c := range buf {
		switch {
		case esc:
			esc = false
			if c == Esc {
				out = append(out, Esc)
			} else {
				out = append(out, c&EscMask)
			}
		case c == Esc:
			esc = true
		default:
			out = append(out, c)
		}
	}
	observability.RecordLayer("escape", observability.DirectionDecode, len(out), true)
	l.Base.Decode(out)
}

func (l *AsciiEscapeLayer) Encode(buf []byte, last bool) {
	out := make([]byte, 0, len(buf)+len(buf)/8)
	for _, c := range buf {
		switch {
		case c < 0x20:
			out = append(out, Esc, c|0x40)
		case c == Esc:
			out = append(out, Esc, Esc)
		default:
			out = append(out, c)
		}
	}
	observability.RecordLayer("escape", observability.DirectionEncode, len(out), last)
	l.Base.Encode(out, last)
}
