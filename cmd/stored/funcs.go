package main

import (
	"encoding/binary"
	"time"

	"github.com/danmuck/storedbg/internal/store"
)

// builtins backs the functions a store description may declare by name.
type builtins struct {
	seed int64
	echo [2][4]byte
	now  func() time.Time
}

func newBuiltins() *builtins {
	return &builtins{seed: 42, now: time.Now}
}

func (b *builtins) funcs() map[string]store.Func {
	return map[string]store.Func{
		"/time (s)": b.timeSeconds,
		"/rand":     b.rand,
		"/echo/0":   b.echoSlot(0),
		"/echo/1":   b.echoSlot(1),
	}
}

func (b *builtins) timeSeconds(set bool, buf []byte) int {
	if set {
		return 0
	}
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], uint64(b.now().Unix()))
	return copy(buf, v[:])
}

// rand is the minimal standard Lehmer generator.
func (b *builtins) rand(set bool, buf []byte) int {
	if set {
		return 0
	}
	b.seed = (48271 * b.seed) % 2147483647
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], uint32(b.seed))
	return copy(buf, v[:])
}

func (b *builtins) echoSlot(i int) store.Func {
	return func(set bool, buf []byte) int {
		if set {
			return copy(b.echo[i][:], buf)
		}
		return copy(buf, b.echo[i][:])
	}
}
