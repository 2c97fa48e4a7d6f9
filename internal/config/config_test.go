package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/testutil/testlog"
	"github.com/danmuck/storedbg/internal/variant"
)

func TestStoreTemplateBuilds(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "store.toml")
	if err := WriteTemplate(path, "store", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "store", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}

	s, err := BuildStore(path, "", store.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Name() != "/ExampleStore" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if v, err := variant.Load[uint16](s.Find("/group/b")); err != nil || v != 0xbeef {
		t.Fatalf("/group/b = %x %v", v, err)
	}

	renamed, err := BuildStore(path, "/Other", store.BuildOptions{})
	if err != nil || renamed.Name() != "/Other" {
		t.Fatalf("mount rename: %v", err)
	}
}

func TestValidateStoreDescription(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"missing name":      "[[variable]]\nname = \"/a\"\ntype = \"int8\"\n",
		"relative object":   "name = \"/S\"\n[[variable]]\nname = \"a\"\ntype = \"int8\"\n",
		"missing type":      "name = \"/S\"\n[[function]]\nname = \"/f\"\n",
		"unknown type":      "name = \"/S\"\n[[variable]]\nname = \"/a\"\ntype = \"int128\"\n",
		"nested store name": "name = \"/S/T\"\n",
	}
	for name, body := range cases {
		if _, err := ParseStoreDescription([]byte(body)); !errors.Is(err, ErrInvalidDescription) {
			t.Fatalf("%s: got %v", name, err)
		}
	}
	if _, err := ParseStoreDescription([]byte("name = [")); err == nil || errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("syntax error must surface as a parse failure: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := LoadStoreDescription(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestTemplateKinds(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"store", "host", "stored"} {
		if _, err := Template(kind); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind")
	}
}
