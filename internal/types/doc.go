// Package types owns the one-byte type tag shared by directories, accessors
// and the debugger wire protocol.
//
// Ownership boundary:
// - type tag values and flag bits
// - size/signedness/function classification
// - type names used by store descriptions
package types
