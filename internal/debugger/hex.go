package debugger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/danmuck/storedbg/internal/types"
)

var ErrBadValue = errors.New("debugger: malformed value")

// encodeValue renders data as the read response for type t. Fixed types
// are stored little-endian and sent as big-endian hex without leading
// zeros. Strings stop at the first NUL.
func encodeValue(t types.Type, data []byte) []byte {
	t = t.Data()
	switch {
	case t.IsFixed():
		be := slices.Clone(data)
		slices.Reverse(be)
		out := hex.AppendEncode(nil, be)
		i := 0
		for i < len(out)-1 && out[i] == '0' {
			i++
		}
		return out[i:]
	case t == types.String:
		if i := slices.Index(data, 0); i >= 0 {
			data = data[:i]
		}
	}
	return hex.AppendEncode(nil, data)
}

// decodeValue parses the hex of a write request into the bytes to store.
// size is the fixed size of t or the capacity of a variable-length object.
func decodeValue(t types.Type, size int, h []byte) ([]byte, error) {
	if len(h) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadValue)
	}
	t = t.Data()
	if t.IsFixed() {
		if len(h) > 2*size {
			return nil, fmt.Errorf("%w: %d digits for %s", ErrBadValue, len(h), t)
		}
		padded := make([]byte, 2*size)
		for i := range padded[:2*size-len(h)] {
			padded[i] = '0'
		}
		copy(padded[2*size-len(h):], h)
		b, err := hex.DecodeString(string(padded))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadValue, err)
		}
		slices.Reverse(b)
		return b, nil
	}

	if len(h)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length", ErrBadValue)
	}
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadValue, err)
	}
	if len(b) > size {
		return nil, fmt.Errorf("%w: %d bytes exceed %d", ErrBadValue, len(b), size)
	}
	if t == types.String && len(b) < size {
		b = append(b, 0)
	}
	return b, nil
}
