package debugger

import (
	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/variant"
)

// DebugStore is what the debugger needs from a store: its name and
// container independent lookup.
type DebugStore interface {
	Name() string
	Find(path string) variant.DebugVariant
	List(fn func(path string, v variant.DebugVariant))
}

type storeAdapter struct {
	s *store.Store
}

// Adapt exposes a store to the debugger. The store must outlive its
// mapping.
func Adapt(s *store.Store) DebugStore {
	return storeAdapter{s: s}
}

func (a storeAdapter) Name() string { return a.s.Name() }

func (a storeAdapter) Find(path string) variant.DebugVariant {
	return variant.Erase(a.s.Find(path))
}

func (a storeAdapter) List(fn func(path string, v variant.DebugVariant)) {
	a.s.List(func(path string, v variant.Variant[*store.Store]) {
		fn(path, variant.Erase(v))
	})
}
