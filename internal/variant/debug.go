package variant

import "github.com/danmuck/storedbg/internal/types"

// Accessor is the container-independent capability set every Variant
// provides, whatever its container type.
type Accessor interface {
	Get(dst []byte) (int, error)
	Set(src []byte) (int, error)
	Type() types.Type
	Size() int
	Valid() bool
}

// DebugVariant erases the container type of a Variant so heterogeneous
// stores can be handled through one value type. It is small and safe to
// copy. The zero value is invalid.
type DebugVariant struct {
	a Accessor
}

// Erase wraps v. Invalid variants erase to the zero DebugVariant.
func Erase[C Container](v Variant[C]) DebugVariant {
	if !v.Valid() {
		return DebugVariant{}
	}
	return DebugVariant{a: v}
}

// Wrap erases any accessor, for stores that are not directory backed.
func Wrap(a Accessor) DebugVariant {
	if a == nil || !a.Valid() {
		return DebugVariant{}
	}
	return DebugVariant{a: a}
}

func (d DebugVariant) Valid() bool { return d.a != nil && d.a.Valid() }

func (d DebugVariant) Get(dst []byte) (int, error) {
	if d.a == nil {
		return 0, ErrInvalidAccess
	}
	return d.a.Get(dst)
}

func (d DebugVariant) Set(src []byte) (int, error) {
	if d.a == nil {
		return 0, ErrInvalidAccess
	}
	return d.a.Set(src)
}

func (d DebugVariant) Type() types.Type {
	if d.a == nil {
		return types.Void
	}
	return d.a.Type()
}

func (d DebugVariant) Size() int {
	if d.a == nil {
		return 0
	}
	return d.a.Size()
}

// Accessor returns the erased variant, for callers that know its container.
func (d DebugVariant) Accessor() Accessor { return d.a }
