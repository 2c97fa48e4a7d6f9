package store

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/storedbg/internal/directory"
	"github.com/danmuck/storedbg/internal/types"
)

var (
	ErrInvalidStoreName  = errors.New("store: store name must look like /Name")
	ErrInvalidObjectName = errors.New("store: object name must start with /")
	ErrInvalidObject     = errors.New("store: invalid object")
	ErrInvalidInit       = errors.New("store: invalid initial value")
)

// Description is the textual form of a store, as read from a TOML file:
//
//	name = "/ExampleStore"
//
//	[[variable]]
//	name = "/i"
//	type = "int32"
//	init = 42
//
//	[[function]]
//	name = "/rand"
//	type = "int32"
type Description struct {
	Name      string         `toml:"name"`
	Variables []VariableDesc `toml:"variable"`
	Functions []FunctionDesc `toml:"function"`
}

type VariableDesc struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	// Size is required for blob and string.
	Size int    `toml:"size"`
	Init any    `toml:"init"`
}

type FunctionDesc struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	Size int    `toml:"size"`
}

// BuildOptions tunes Build.
type BuildOptions struct {
	Encode directory.EncodeOptions
	// Funcs binds function callbacks by object name.
	Funcs map[string]Func
}

// ValidateStoreName checks the "/Name" shape debuggers mount stores under.
func ValidateStoreName(name string) error {
	if len(name) < 2 || name[0] != '/' || strings.Contains(name[1:], "/") {
		return fmt.Errorf("%w: %q", ErrInvalidStoreName, name)
	}
	return nil
}

// Build lays out the variables of desc in one buffer with natural
// alignment, numbers the functions in declaration order, encodes the
// directory and applies initial values.
func Build(desc Description, opts BuildOptions) (*Store, error) {
	if err := ValidateStoreName(desc.Name); err != nil {
		return nil, err
	}

	objs := make([]directory.Object, 0, len(desc.Variables)+len(desc.Functions))
	inits := make(map[int][]byte)
	offset := 0
	for _, v := range desc.Variables {
		t, err := objectType(v.Name, v.Type)
		if err != nil {
			return nil, err
		}
		if t.IsFunction() {
			return nil, fmt.Errorf("%w: variable %q has function type %s", ErrInvalidObject, v.Name, t)
		}
		size, err := objectSize(v.Name, t, v.Size)
		if err != nil {
			return nil, err
		}
		if t.IsFixed() {
			offset = alignUp(offset, min(size, 8))
		}
		if v.Init != nil {
			b, err := encodeInit(t, size, v.Init)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidInit, v.Name, err)
			}
			inits[offset] = b
		}
		objs = append(objs, directory.Object{Name: v.Name, Type: t, Offset: uint64(offset), Len: size})
		offset += size
	}

	funcs := make([]Func, len(desc.Functions))
	bound := 0
	for id, f := range desc.Functions {
		t, err := objectType(f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		size, err := objectSize(f.Name, t, f.Size)
		if err != nil {
			return nil, err
		}
		objs = append(objs, directory.Object{Name: f.Name, Type: t.Function(), Offset: uint64(id), Len: size})
		if cb, ok := opts.Funcs[f.Name]; ok {
			funcs[id] = cb
			bound++
		}
	}
	if bound != len(opts.Funcs) {
		log.Debug().Str("store", desc.Name).Int("bound", bound).Int("given", len(opts.Funcs)).
			Msg("store: unused callbacks")
	}

	dir, err := directory.Encode(objs, opts.Encode)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", desc.Name, err)
	}

	buf := make([]byte, offset)
	for off, b := range inits {
		copy(buf[off:], b)
	}
	log.Debug().Str("store", desc.Name).Int("objects", len(objs)).Int("buffer", len(buf)).
		Int("directory", len(dir)).Msg("store: built")
	return New(desc.Name, dir, buf, funcs), nil
}

func objectType(name, raw string) (types.Type, error) {
	if !strings.HasPrefix(name, "/") {
		return types.Void, fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}
	t, err := types.ParseType(raw)
	if err != nil {
		return types.Void, fmt.Errorf("%w: %q: %w", ErrInvalidObject, name, err)
	}
	if t.Data() == types.Void {
		return types.Void, fmt.Errorf("%w: %q is void", ErrInvalidObject, name)
	}
	return t, nil
}

func objectSize(name string, t types.Type, size int) (int, error) {
	if t.IsFixed() {
		return t.Size(), nil
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: %q needs a positive size", ErrInvalidObject, name)
	}
	return size, nil
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) / align * align
}

// encodeInit converts a TOML initial value into the stored bytes.
func encodeInit(t types.Type, size int, raw any) ([]byte, error) {
	switch t {
	case types.String:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("want a string, got %T", raw)
		}
		if len(s) > size {
			return nil, fmt.Errorf("%d bytes exceed size %d", len(s), size)
		}
		return []byte(s), nil
	case types.Blob:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("want a hex string, got %T", raw)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if len(b) > size {
			return nil, fmt.Errorf("%d bytes exceed size %d", len(b), size)
		}
		return b, nil
	case types.Bool:
		v, err := initBool(raw)
		if err != nil {
			return nil, err
		}
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case types.Float, types.Double:
		f, err := initFloat(raw, t.Size()*8)
		if err != nil {
			return nil, err
		}
		b := make([]byte, t.Size())
		if t == types.Float {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
		} else {
			binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		}
		return b, nil
	}

	bits := t.Size() * 8
	var u uint64
	if t.IsSigned() {
		i, err := initInt(raw, bits)
		if err != nil {
			return nil, err
		}
		u = uint64(i)
	} else {
		v, err := initUint(raw, bits)
		if err != nil {
			return nil, err
		}
		u = v
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, u)
	return b[:t.Size()], nil
}

func initBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		i, err := strconv.ParseInt(v, 0, 64)
		return i != 0, err
	}
	return false, fmt.Errorf("want a bool, got %T", raw)
}

func initFloat(raw any, bits int) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, bits)
	}
	return 0, fmt.Errorf("want a number, got %T", raw)
}

func initInt(raw any, bits int) (int64, error) {
	switch v := raw.(type) {
	case int64:
		if bits < 64 && (v < -(1<<(bits-1)) || v >= 1<<(bits-1)) {
			return 0, fmt.Errorf("%d overflows int%d", v, bits)
		}
		return v, nil
	case string:
		return strconv.ParseInt(v, 0, bits)
	}
	return 0, fmt.Errorf("want an integer, got %T", raw)
}

func initUint(raw any, bits int) (uint64, error) {
	switch v := raw.(type) {
	case int64:
		if v < 0 || (bits < 64 && uint64(v) >= 1<<bits) {
			return 0, fmt.Errorf("%d overflows uint%d", v, bits)
		}
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 0, bits)
	}
	return 0, fmt.Errorf("want an integer, got %T", raw)
}
