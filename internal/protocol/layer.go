package protocol

// Layer is one stage of a protocol stack. Decode receives bytes from below
// and passes them up. Encode receives bytes from above and passes them
// down; last marks the end of a frame.
type Layer interface {
	Decode(buf []byte)
	Encode(buf []byte, last bool)
	Up() Layer
	Down() Layer
	SetUp(Layer)
	SetDown(Layer)
}

// Base links a layer to its neighbours and forwards unchanged. Embed it
// and override Decode or Encode.
type Base struct {
	up   Layer
	down Layer
}

func (b *Base) Up() Layer       { return b.up }
func (b *Base) Down() Layer     { return b.down }
func (b *Base) SetUp(l Layer)   { b.up = l }
func (b *Base) SetDown(l Layer) { b.down = l }

func (b *Base) Decode(buf []byte) {
	if b.up != nil {
		b.up.Decode(buf)
	}
}

func (b *Base) Encode(buf []byte, last bool) {
	if b.down != nil {
		b.down.Encode(buf, last)
	}
}

// Wrap places l directly below inner: l wraps inner on the wire side and
// is never inserted above it. Whatever was below inner ends up below l, so
// decoded data flows from there through l into inner.
func Wrap(l, inner Layer) {
	d := inner.Down()
	l.SetDown(d)
	if d != nil {
		d.SetUp(l)
	}
	inner.SetDown(l)
	l.SetUp(inner)
}

// Stack is the mirror of Wrap: it places l directly above outer, on the
// application side. Whatever was above outer ends up above l.
func Stack(l, outer Layer) {
	u := outer.Up()
	l.SetUp(u)
	if u != nil {
		u.SetDown(l)
	}
	outer.SetUp(l)
	l.SetDown(outer)
}

// Chain links layers from the application side (first) to the wire side
// (last) and returns the bottom layer, where received bytes are fed in.
func Chain(layers ...Layer) Layer {
	if len(layers) == 0 {
		return nil
	}
	for i := 1; i < len(layers); i++ {
		Wrap(layers[i], layers[i-1])
	}
	return layers[len(layers)-1]
}
