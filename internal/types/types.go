package types

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownType = errors.New("types: unknown type")

// Type is the one-byte type tag shared by the directory and the debugger
// protocol. Low bits hold size-1 for fixed types; the flag bits classify it.
type Type uint8

const (
	MaskSize     Type = 0x07
	MaskFlags    Type = 0x78
	FlagSigned   Type = 0x08
	FlagInt      Type = 0x10
	FlagFixed    Type = 0x20
	FlagFunction Type = 0x40
)

// Type tags from the directory contract.
const (
	Int8   Type = FlagFixed | FlagInt | FlagSigned | 0
	Uint8  Type = FlagFixed | FlagInt | 0
	Int16  Type = FlagFixed | FlagInt | FlagSigned | 1
	Uint16 Type = FlagFixed | FlagInt | 1
	Int32  Type = FlagFixed | FlagInt | FlagSigned | 3
	Uint32 Type = FlagFixed | FlagInt | 3
	Int64  Type = FlagFixed | FlagInt | FlagSigned | 7
	Uint64 Type = FlagFixed | FlagInt | 7

	Float     Type = FlagFixed | FlagSigned | 3
	Double    Type = FlagFixed | FlagSigned | 7
	Bool      Type = FlagFixed | 0
	Pointer32 Type = FlagFixed | 3
	Pointer64 Type = FlagFixed | 7
	Pointer   Type = Pointer64

	Void   Type = 0
	Blob   Type = 1
	String Type = 2
)

func (t Type) IsFunction() bool { return t&FlagFunction != 0 }
func (t Type) IsFixed() bool    { return t&FlagFixed != 0 }
func (t Type) IsInt() bool      { return t.IsFixed() && t&FlagInt != 0 }
func (t Type) IsSigned() bool   { return t.IsFixed() && t&FlagSigned != 0 }
func (t Type) IsSpecial() bool  { return t&MaskFlags == 0 }

// Size returns the byte width of fixed types and 0 for variable-length ones.
func (t Type) Size() int {
	if !t.IsFixed() {
		return 0
	}
	return int(t&MaskSize) + 1
}

// Function returns the function flavour of t.
func (t Type) Function() Type { return t | FlagFunction }

// Data strips the function flag.
func (t Type) Data() Type { return t &^ FlagFunction }

// Valid reports whether t is one of the known tags, with or without the
// function flag.
func (t Type) Valid() bool {
	_, ok := names[t.Data()]
	return ok && t < 0x80
}

var names = map[Type]string{
	Int8:      "int8",
	Uint8:     "uint8",
	Int16:     "int16",
	Uint16:    "uint16",
	Int32:     "int32",
	Uint32:    "uint32",
	Int64:     "int64",
	Uint64:    "uint64",
	Float:     "float",
	Double:    "double",
	Bool:      "bool",
	Pointer32: "ptr32",
	Pointer64: "ptr64",
	Void:      "void",
	Blob:      "blob",
	String:    "string",
}

func (t Type) String() string {
	name, ok := names[t.Data()]
	if !ok {
		return fmt.Sprintf("type(0x%02x)", uint8(t))
	}
	if t.IsFunction() {
		return "(" + name + ")"
	}
	return name
}

// ParseType maps a store-description type name to its tag. A name wrapped
// in parentheses, like "(int32)", yields the function flavour.
func ParseType(raw string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	fn := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		fn = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	switch s {
	case "float32":
		s = "float"
	case "float64":
		s = "double"
	case "ptr", "pointer":
		s = "ptr64"
	}
	for t, name := range names {
		if name == s {
			if fn {
				return t.Function(), nil
			}
			return t, nil
		}
	}
	return Void, fmt.Errorf("%w: %q", ErrUnknownType, raw)
}
