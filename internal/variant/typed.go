package variant

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/storedbg/internal/types"
)

// Scalar is any fixed-size value a store can hold.
type Scalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// Stores keep scalars in little-endian order.
var byteOrder = binary.LittleEndian

// TypeOf maps a scalar Go type to its type tag.
func TypeOf[T Scalar]() types.Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return types.Int8
	case uint8:
		return types.Uint8
	case int16:
		return types.Int16
	case uint16:
		return types.Uint16
	case int32:
		return types.Int32
	case uint32:
		return types.Uint32
	case int64:
		return types.Int64
	case uint64:
		return types.Uint64
	case float32:
		return types.Float
	case float64:
		return types.Double
	case bool:
		return types.Bool
	}
	// Named types fall back to their width.
	switch binary.Size(zero) {
	case 1:
		return types.Uint8
	case 2:
		return types.Uint16
	case 4:
		return types.Uint32
	default:
		return types.Uint64
	}
}

// Load reads v as a T. The widths must agree.
func Load[T Scalar, C Container](v Variant[C]) (T, error) {
	var x T
	buf := make([]byte, binary.Size(x))
	if v.Valid() && v.Size() != len(buf) {
		return x, fmt.Errorf("%w: %s is %d bytes, want %d", ErrLength, v.Type(), v.Size(), len(buf))
	}
	if _, err := v.Get(buf); err != nil {
		return x, err
	}
	if _, err := binary.Decode(buf, byteOrder, &x); err != nil {
		return x, err
	}
	return x, nil
}

// Store writes x into v. The widths must agree.
func Store[T Scalar, C Container](v Variant[C], x T) error {
	buf := make([]byte, binary.Size(x))
	if v.Valid() && v.Size() != len(buf) {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrLength, v.Type(), v.Size(), len(buf))
	}
	if _, err := binary.Encode(buf, byteOrder, x); err != nil {
		return err
	}
	_, err := v.Set(buf)
	return err
}
