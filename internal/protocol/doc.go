// Package protocol owns the bidirectional layer stack that carries debugger
// frames over a byte stream.
//
// Ownership boundary:
// - Layer contract and neighbour splicing (Wrap, Stack, Chain)
// - escaping and terminal framing
// - observation layers (print, buffer, capture)
//
// Decode flows up towards the application, Encode flows down towards the
// wire. Layers never own their neighbours.
package protocol
