// Package store holds concrete stores: a buffer, its directory and the
// function callbacks, built by hand or from a TOML description.
package store
