// Package bridge exposes a debugger over HTTP with gin. Requests map onto
// the same frames the terminal protocol carries.
package bridge
