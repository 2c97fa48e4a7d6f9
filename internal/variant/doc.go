// Package variant owns typed, non-owning accessors over store memory.
//
// Ownership boundary:
// - Variant binding of directory entries to a container
// - get/set length contract and write policy
// - container type erasure (DebugVariant)
package variant
