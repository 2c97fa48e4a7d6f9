package config

import (
	"github.com/danmuck/storedbg/internal/store"
)

// BuildStore loads the description at path and builds the store, renamed to
// mount when one is given.
func BuildStore(path, mount string, opts store.BuildOptions) (*store.Store, error) {
	desc, err := LoadStoreDescription(path)
	if err != nil {
		return nil, err
	}
	if mount != "" {
		desc.Name = mount
	}
	return store.Build(desc, opts)
}
