package store

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/storedbg/internal/types"
	"github.com/danmuck/storedbg/internal/variant"
)

// Func backs one store function. set reports whether buf carries a value
// to write (true) or should receive the current value (false). It returns
// the number of bytes transferred.
type Func func(set bool, buf []byte) int

// HookFunc observes effective writes to store variables.
type HookFunc func(t types.Type, offset int, b []byte)

// Store is a named block of typed variables and functions, addressed by a
// directory. It satisfies variant.Container.
type Store struct {
	name   string
	dir    []byte
	buf    []byte
	funcs  []Func
	policy variant.Policy
	hook   HookFunc
}

// New creates a store over buf. funcs is indexed by the function ids the
// directory refers to.
func New(name string, dir, buf []byte, funcs []Func) *Store {
	return &Store{name: name, dir: dir, buf: buf, funcs: funcs}
}

func (s *Store) Name() string      { return s.name }
func (s *Store) Directory() []byte { return s.dir }

func (s *Store) Buffer() []byte {
	if s == nil {
		return nil
	}
	return s.buf
}

func (s *Store) Callback(set bool, buf []byte, id uint) int {
	if s == nil {
		return 0
	}
	if id >= uint(len(s.funcs)) || s.funcs[id] == nil {
		log.Debug().Str("store", s.name).Uint("function", id).Msg("store: no callback bound")
		return 0
	}
	return s.funcs[id](set, buf)
}

// SetFunc binds or replaces the callback for function id.
func (s *Store) SetFunc(id uint, f Func) {
	for uint(len(s.funcs)) <= id {
		s.funcs = append(s.funcs, nil)
	}
	s.funcs[id] = f
}

// SetPolicy changes the write policy. Hooks only fire when a hook is set.
func (s *Store) SetPolicy(p variant.Policy) { s.policy = p }

// OnSet installs the write hook and enables it in the policy.
func (s *Store) OnSet(h HookFunc) {
	s.hook = h
	s.policy.Hooks = h != nil
}

func (s *Store) Policy() variant.Policy {
	p := s.policy
	p.Hooks = p.Hooks && s.hook != nil
	return p
}

func (s *Store) HookSet(t types.Type, offset int, b []byte) {
	if s.hook != nil {
		s.hook(t, offset, b)
	}
}

// Find resolves a name inside this store, like "/group/value".
func (s *Store) Find(name string) variant.Variant[*Store] {
	return variant.Find(s, s.dir, name)
}

// List calls fn for every object in the store, in directory order.
func (s *Store) List(fn func(name string, v variant.Variant[*Store])) {
	variant.List(s, s.dir, fn)
}
