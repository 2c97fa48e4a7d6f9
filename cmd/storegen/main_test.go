package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/testutil/testlog"
)

func TestWriteHex(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	dir := make([]byte, 17)
	dir[16] = 0xbb
	writeHex(&out, dir)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 || lines[1] != "0xbb," {
		t.Fatalf("unexpected hex dump %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "0x00, 0x00,") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}

func TestWriteListing(t *testing.T) {
	testlog.Start(t)
	s, err := store.Build(store.Description{
		Name:      "/S",
		Variables: []store.VariableDesc{{Name: "/a", Type: "int16"}, {Name: "/b", Type: "blob", Size: 3}},
		Functions: []store.FunctionDesc{{Name: "/f", Type: "bool"}},
	}, store.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var out bytes.Buffer
	writeListing(&out, s)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected listing %q", out.String())
	}
	for i, want := range []string{"/a", "/b", "/f"} {
		if !strings.HasPrefix(lines[i+1], want+" ") {
			t.Fatalf("line %d %q, want %s", i+1, lines[i+1], want)
		}
	}
	if !strings.HasSuffix(lines[2], "offset 2") || !strings.HasSuffix(lines[3], "function 0") {
		t.Fatalf("unexpected locations %q", out.String())
	}
}
