package variant

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/storedbg/internal/directory"
	"github.com/danmuck/storedbg/internal/types"
)

var (
	ErrInvalidAccess = errors.New("variant: access through invalid handle")
	ErrLength        = errors.New("variant: length mismatch")
)

// Container is the storage a Variant is bound to: a byte buffer that
// directory offsets index into, and a callback table for functions.
type Container interface {
	Buffer() []byte
	// Callback reads (set=false) into or writes (set=true) from buf through
	// function id, returning the number of bytes transferred.
	Callback(set bool, buf []byte, id uint) int
}

// Policy configures what happens on a write to a variable.
type Policy struct {
	// SkipUnchanged drops writes that are bit-identical to the stored value.
	SkipUnchanged bool
	// Hooks calls HookSet after every effective write.
	Hooks bool
}

// Hooked is implemented by containers that observe variable writes.
type Hooked interface {
	Policy() Policy
	HookSet(t types.Type, offset int, b []byte)
}

// Variant is a non-owning, type-tagged view of one variable or function in
// container C. The zero value is invalid.
type Variant[C Container] struct {
	container C
	typ       types.Type
	offset    int
	length    int
	id        uint
	ok        bool
}

// New binds a variable of type t at buf[offset:offset+length]. Fixed types
// take their length from t. A range outside the container's buffer yields
// an invalid Variant.
func New[C Container](c C, t types.Type, offset, length int) Variant[C] {
	if t.IsFunction() {
		return Variant[C]{}
	}
	if t.IsFixed() {
		length = t.Size()
	}
	if offset < 0 || length < 0 || offset+length > len(c.Buffer()) {
		return Variant[C]{}
	}
	return Variant[C]{container: c, typ: t, offset: offset, length: length, ok: true}
}

// NewFunction binds function id of type t. length is only used for types
// without a fixed size.
func NewFunction[C Container](c C, t types.Type, id uint, length int) Variant[C] {
	t = t.Function()
	if t.IsFixed() {
		length = t.Size()
	}
	if length < 0 {
		return Variant[C]{}
	}
	return Variant[C]{container: c, typ: t, id: id, length: length, ok: true}
}

// Bind applies a directory entry to c.
func Bind[C Container](c C, e directory.Entry) Variant[C] {
	if !e.Valid() {
		return Variant[C]{}
	}
	if e.IsFunction() {
		return NewFunction(c, e.Type, e.FunctionID(), e.Len)
	}
	if e.Offset > uint64(len(c.Buffer())) {
		return Variant[C]{}
	}
	return New(c, e.Type, int(e.Offset), e.Len)
}

// Find resolves name in dir against c.
func Find[C Container](c C, dir []byte, name string) Variant[C] {
	return Bind(c, directory.Find(dir, name))
}

// List binds every leaf of dir to c.
func List[C Container](c C, dir []byte, fn func(name string, v Variant[C])) {
	directory.List(dir, func(name string, e directory.Entry) {
		if v := Bind(c, e); v.Valid() {
			fn(name, v)
		}
	})
}

func (v Variant[C]) Valid() bool      { return v.ok }
func (v Variant[C]) Type() types.Type { return v.typ }
func (v Variant[C]) IsFunction() bool { return v.ok && v.typ.IsFunction() }
func (v Variant[C]) IsVariable() bool { return v.ok && !v.typ.IsFunction() }
func (v Variant[C]) Container() C     { return v.container }
func (v Variant[C]) Offset() int      { return v.offset }
func (v Variant[C]) FunctionID() uint { return v.id }

// Size is the fixed size of the type, or the bound length otherwise.
func (v Variant[C]) Size() int {
	if !v.ok {
		return 0
	}
	return v.length
}

func (v Variant[C]) checkLen(n int) error {
	if v.typ.IsFixed() {
		if n != v.length {
			return fmt.Errorf("%w: %d bytes for %s", ErrLength, n, v.typ)
		}
		return nil
	}
	if n > v.length {
		return fmt.Errorf("%w: %d bytes exceed %d", ErrLength, n, v.length)
	}
	return nil
}

// Get copies the value into dst. Fixed types need len(dst) == Size, other
// types accept up to Size bytes. Functions are called in read mode and
// report how many bytes they produced.
func (v Variant[C]) Get(dst []byte) (int, error) {
	if !v.ok {
		return 0, ErrInvalidAccess
	}
	if v.typ.IsFunction() {
		return clamp(v.container.Callback(false, dst, v.id), len(dst)), nil
	}
	if err := v.checkLen(len(dst)); err != nil {
		return 0, err
	}
	return copy(dst, v.container.Buffer()[v.offset:v.offset+len(dst)]), nil
}

// Set writes src, subject to the container's write policy.
func (v Variant[C]) Set(src []byte) (int, error) {
	if !v.ok {
		return 0, ErrInvalidAccess
	}
	if v.typ.IsFunction() {
		return clamp(v.container.Callback(true, src, v.id), len(src)), nil
	}
	if err := v.checkLen(len(src)); err != nil {
		return 0, err
	}

	dst := v.container.Buffer()[v.offset : v.offset+len(src)]
	h, hooked := any(v.container).(Hooked)
	var policy Policy
	if hooked {
		policy = h.Policy()
	}
	if policy.SkipUnchanged && bytes.Equal(dst, src) {
		return len(src), nil
	}
	n := copy(dst, src)
	if policy.Hooks {
		h.HookSet(v.typ, v.offset, dst)
	}
	return n, nil
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
