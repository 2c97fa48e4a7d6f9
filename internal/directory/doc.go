// Package directory encodes and walks the compact binary name trie that
// maps object names to their type and location inside a store.
//
// Ownership boundary:
// - varint codec and node tags
// - Find and List over encoded bytes
// - Encode from an object list
package directory
