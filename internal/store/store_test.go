package store

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/storedbg/internal/directory"
	"github.com/danmuck/storedbg/internal/testutil/testlog"
	"github.com/danmuck/storedbg/internal/types"
	"github.com/danmuck/storedbg/internal/variant"
)

const exampleDescription = `
name = "/Example"

[[variable]]
name = "/i"
type = "int32"
init = 42

[[variable]]
name = "/b"
type = "bool"
init = true

[[variable]]
name = "/d"
type = "double"
init = 1.5

[[variable]]
name = "/s"
type = "string"
size = 8
init = "hi"

[[variable]]
name = "/blob"
type = "blob"
size = 4
init = "deadbeef"

[[variable]]
name = "/u8"
type = "uint8"
init = "0x10"

[[function]]
name = "/rand"
type = "int32"

[[function]]
name = "/echo"
type = "string"
size = 16
`

func buildExample(t *testing.T, funcs map[string]Func) *Store {
	t.Helper()
	var desc Description
	if err := toml.Unmarshal([]byte(exampleDescription), &desc); err != nil {
		t.Fatalf("decode description: %v", err)
	}
	s, err := Build(desc, BuildOptions{Funcs: funcs})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func TestBuildLayoutAndInit(t *testing.T) {
	testlog.Start(t)
	s := buildExample(t, nil)

	if s.Name() != "/Example" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if len(s.Buffer()) != 29 {
		t.Fatalf("unexpected buffer size %d", len(s.Buffer()))
	}

	cases := []struct {
		name   string
		typ    types.Type
		offset int
	}{
		{"/i", types.Int32, 0},
		{"/b", types.Bool, 4},
		{"/d", types.Double, 8},
		{"/s", types.String, 16},
		{"/blob", types.Blob, 24},
		{"/u8", types.Uint8, 28},
	}
	for _, tc := range cases {
		v := s.Find(tc.name)
		if !v.Valid() || v.Type() != tc.typ || v.Offset() != tc.offset {
			t.Fatalf("%s: valid=%v type=%v offset=%d", tc.name, v.Valid(), v.Type(), v.Offset())
		}
	}

	if i, err := variant.Load[int32](s.Find("/i")); err != nil || i != 42 {
		t.Fatalf("/i = %d %v", i, err)
	}
	if b, err := variant.Load[bool](s.Find("/b")); err != nil || !b {
		t.Fatalf("/b = %v %v", b, err)
	}
	if d, err := variant.Load[float64](s.Find("/d")); err != nil || d != 1.5 {
		t.Fatalf("/d = %v %v", d, err)
	}
	if u, err := variant.Load[uint8](s.Find("/u8")); err != nil || u != 0x10 {
		t.Fatalf("/u8 = %v %v", u, err)
	}
	if got := s.Buffer()[16:24]; !bytes.Equal(got, []byte("hi\x00\x00\x00\x00\x00\x00")) {
		t.Fatalf("/s bytes % x", got)
	}
	if got := s.Buffer()[24:28]; !bytes.Equal(got, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("/blob bytes % x", got)
	}
}

func TestBuildFunctions(t *testing.T) {
	testlog.Start(t)
	var echo []byte
	s := buildExample(t, map[string]Func{
		"/rand": func(set bool, buf []byte) int {
			if set {
				return 0
			}
			return copy(buf, []byte{4, 0, 0, 0})
		},
		"/echo": func(set bool, buf []byte) int {
			if set {
				echo = append(echo[:0], buf...)
				return len(buf)
			}
			return copy(buf, echo)
		},
	})

	r := s.Find("/rand")
	if !r.IsFunction() || r.FunctionID() != 0 {
		t.Fatalf("/rand: fn=%v id=%d", r.IsFunction(), r.FunctionID())
	}
	if v, err := variant.Load[int32](r); err != nil || v != 4 {
		t.Fatalf("/rand = %d %v", v, err)
	}

	e := s.Find("/echo")
	if e.FunctionID() != 1 || e.Size() != 16 {
		t.Fatalf("/echo: id=%d size=%d", e.FunctionID(), e.Size())
	}
	if n, _ := e.Set([]byte("abc")); n != 3 {
		t.Fatalf("echo set %d", n)
	}
	buf := make([]byte, 16)
	if n, _ := e.Get(buf); string(buf[:n]) != "abc" {
		t.Fatalf("echo get %q", buf[:n])
	}
}

func TestUnboundFunctionReadsNothing(t *testing.T) {
	testlog.Start(t)
	s := buildExample(t, nil)
	buf := make([]byte, 4)
	if n, err := s.Find("/rand").Get(buf); n != 0 || err != nil {
		t.Fatalf("unbound function: %d %v", n, err)
	}

	s.SetFunc(0, func(set bool, b []byte) int { return copy(b, []byte{1}) })
	if n, _ := s.Find("/rand").Get(buf); n != 1 {
		t.Fatalf("rebound function returned %d", n)
	}
}

func TestOnSetHook(t *testing.T) {
	testlog.Start(t)
	s := buildExample(t, nil)

	var offsets []int
	s.OnSet(func(_ types.Type, offset int, _ []byte) { offsets = append(offsets, offset) })
	s.SetPolicy(variant.Policy{SkipUnchanged: true, Hooks: true})

	if err := variant.Store(s.Find("/i"), int32(42)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := variant.Store(s.Find("/u8"), uint8(1)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if len(offsets) != 1 || offsets[0] != 28 {
		t.Fatalf("unexpected hook offsets %v", offsets)
	}

	s.OnSet(nil)
	if s.Policy().Hooks {
		t.Fatalf("hooks must be off without a hook")
	}
}

func TestListVisitsEveryObject(t *testing.T) {
	testlog.Start(t)
	s := buildExample(t, nil)
	var names []string
	s.List(func(name string, _ variant.Variant[*Store]) { names = append(names, name) })
	want := []string{"/b", "/blob", "/d", "/echo", "/i", "/rand", "/s", "/u8"}
	if len(names) != len(want) {
		t.Fatalf("listed %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("listed %v, want %v", names, want)
		}
	}
}

func TestBuildRejectsBadDescriptions(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		desc Description
		want error
	}{
		{"store without slash", Description{Name: "Example"}, ErrInvalidStoreName},
		{"nested store name", Description{Name: "/a/b"}, ErrInvalidStoreName},
		{"object without slash", Description{Name: "/S", Variables: []VariableDesc{{Name: "i", Type: "int8"}}}, ErrInvalidObjectName},
		{"unknown type", Description{Name: "/S", Variables: []VariableDesc{{Name: "/i", Type: "int7"}}}, ErrInvalidObject},
		{"string without size", Description{Name: "/S", Variables: []VariableDesc{{Name: "/s", Type: "string"}}}, ErrInvalidObject},
		{"function as variable", Description{Name: "/S", Variables: []VariableDesc{{Name: "/f", Type: "(int8)"}}}, ErrInvalidObject},
		{"overflowing init", Description{Name: "/S", Variables: []VariableDesc{{Name: "/i", Type: "int8", Init: int64(300)}}}, ErrInvalidInit},
		{"negative unsigned", Description{Name: "/S", Variables: []VariableDesc{{Name: "/u", Type: "uint16", Init: int64(-1)}}}, ErrInvalidInit},
		{"long string init", Description{Name: "/S", Variables: []VariableDesc{{Name: "/s", Type: "string", Size: 2, Init: "abc"}}}, ErrInvalidInit},
		{"bad blob hex", Description{Name: "/S", Variables: []VariableDesc{{Name: "/b", Type: "blob", Size: 2, Init: "zz"}}}, ErrInvalidInit},
		{"duplicate", Description{Name: "/S", Variables: []VariableDesc{{Name: "/a", Type: "int8"}, {Name: "/a", Type: "int8"}}}, directory.ErrDuplicateName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.desc, BuildOptions{}); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestEncodeInitForms(t *testing.T) {
	testlog.Start(t)
	b, err := encodeInit(types.Bool, 1, "0x2")
	if err != nil || b[0] != 1 {
		t.Fatalf("numeric bool: % x %v", b, err)
	}
	b, err = encodeInit(types.Int16, 2, "-2")
	if err != nil || !bytes.Equal(b, []byte{0xfe, 0xff}) {
		t.Fatalf("int16: % x %v", b, err)
	}
	b, err = encodeInit(types.Float, 4, int64(1))
	if err != nil || !bytes.Equal(b, []byte{0, 0, 0x80, 0x3f}) {
		t.Fatalf("float: % x %v", b, err)
	}
	if _, err := encodeInit(types.Int32, 4, true); err == nil {
		t.Fatalf("bool into int32 must fail")
	}
}
