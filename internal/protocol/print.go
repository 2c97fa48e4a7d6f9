package protocol

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/danmuck/storedbg/internal/observability"
)

// StringLiteral renders b the way a C string literal would show it, with
// prefix in front.
func StringLiteral(b []byte, prefix string) string {
	var s strings.Builder
	s.Grow(len(prefix) + len(b))
	s.WriteString(prefix)
	for _, c := range b {
		switch c {
		case 0:
			s.WriteString(`\0`)
		case '\r':
			s.WriteString(`\r`)
		case '\n':
			s.WriteString(`\n`)
		case '\t':
			s.WriteString(`\t`)
		case '\\':
			s.WriteString(`\\`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&s, `\x%02x`, c)
			} else {
				s.WriteByte(c)
			}
		}
	}
	return s.String()
}

// PrintLayer shows every chunk passing through it and forwards it
// unchanged. Decoded chunks are prefixed with "> ", encoded ones with "< ".
// With a nil writer it logs at debug level instead.
type PrintLayer struct {
	Base

	w       io.Writer
	decoded *color.Color
	encoded *color.Color
	log     zerolog.Logger
}

func NewPrintLayer(w io.Writer) *PrintLayer {
	l := &PrintLayer{
		w:       w,
		decoded: color.New(color.FgGreen),
		encoded: color.New(color.FgCyan),
		log:     observability.Component("print"),
	}
	colored := false
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		colored = true
	}
	l.SetColor(colored)
	return l
}

// SetColor forces colouring on or off, regardless of the writer.
func (l *PrintLayer) SetColor(on bool) {
	for _, c := range []*color.Color{l.decoded, l.encoded} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func (l *PrintLayer) Decode(buf []byte) {
	l.print(l.decoded, StringLiteral(buf, "> "))
	l.Base.Decode(buf)
}

func (l *PrintLayer) Encode(buf []byte, last bool) {
	lit := StringLiteral(buf, "< ")
	if !last {
		lit += "..."
	}
	l.print(l.encoded, lit)
	l.Base.Encode(buf, last)
}

func (l *PrintLayer) print(c *color.Color, line string) {
	if l.w == nil {
		l.log.Debug().Msg(line)
		return
	}
	if _, err := c.Fprintln(l.w, line); err != nil {
		l.log.Debug().Err(err).Msg("print: write failed")
	}
}
