// Package debugger owns the store map and the text request protocol a host
// uses to inspect and change store values.
//
// Ownership boundary:
// - store mapping and "/Store/path" resolution
// - request parsing and response formatting
// - aliases and identification
package debugger
