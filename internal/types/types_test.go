package types

import (
	"errors"
	"testing"
)

func TestFixedSizesDeriveFromTag(t *testing.T) {
	cases := map[Type]int{
		Int8: 1, Uint8: 1, Int16: 2, Uint16: 2, Int32: 4, Uint32: 4,
		Int64: 8, Uint64: 8, Float: 4, Double: 8, Bool: 1,
		Pointer32: 4, Pointer64: 8, Blob: 0, String: 0, Void: 0,
	}
	for typ, want := range cases {
		if got := typ.Size(); got != want {
			t.Fatalf("%s: size=%d want %d", typ, got, want)
		}
		if got := typ.Function().Size(); got != want {
			t.Fatalf("%s: function size=%d want %d", typ.Function(), got, want)
		}
	}
}

func TestTypeClassification(t *testing.T) {
	if !Int32.IsInt() || !Int32.IsSigned() || Int32.IsFunction() {
		t.Fatalf("int32 flags wrong: %08b", Int32)
	}
	if Uint16.IsSigned() {
		t.Fatalf("uint16 must not be signed")
	}
	if Float.IsInt() || !Float.IsSigned() {
		t.Fatalf("float flags wrong")
	}
	if !Blob.IsSpecial() || Blob.IsFixed() {
		t.Fatalf("blob flags wrong")
	}
	if f := Double.Function(); !f.IsFunction() || f.Data() != Double {
		t.Fatalf("function flag round trip failed: %v", f)
	}
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Int32 ")
	if err != nil || got != Int32 {
		t.Fatalf("parse int32: %v %v", got, err)
	}
	got, err = ParseType("(double)")
	if err != nil || got != Double.Function() {
		t.Fatalf("parse function double: %v %v", got, err)
	}
	got, err = ParseType("float32")
	if err != nil || got != Float {
		t.Fatalf("parse float32 alias: %v %v", got, err)
	}
	if _, err := ParseType("complex128"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestValid(t *testing.T) {
	if !String.Valid() || !Uint64.Function().Valid() {
		t.Fatalf("known tags must be valid")
	}
	if Type(0x05).Valid() || Type(0x80|Int8).Valid() {
		t.Fatalf("unknown tags must be invalid")
	}
}
