package directory

import "strings"

// SkipPlaceholder stands in for every character a skip node consumes. The
// concrete characters are not stored in the directory, so names that pass
// through skip nodes are reconstructed lossily.
const SkipPlaceholder = '?'

// ListFunc receives one leaf with its reconstructed name.
type ListFunc func(name string, e Entry)

type listFrame struct {
	p       int
	nameLen int
	pivot   byte // appended after restoring nameLen; 0 for none
}

// List calls fn for every leaf in dir, exactly once each, in lexicographic
// order of the encoded names. Traversal uses an explicit stack; every frame
// records the name length to restore before it resumes.
func List(dir []byte, fn ListFunc) {
	if len(dir) == 0 || fn == nil {
		return
	}

	var name []byte
	stack := []listFrame{{p: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		name = name[:f.nameLen]
		if f.pivot != 0 {
			name = append(name, f.pivot)
		}
		p := f.p

	walk:
		for p >= 0 && p < len(dir) {
			tag := dir[p]
			switch {
			case tag == TagEnd:
				break walk

			case tag >= TagLeaf:
				if e, _, ok := decodeLeaf(dir, p); ok {
					fn(string(name), e)
				}
				break walk

			case tag <= TagMaxSkip:
				name = append(name, strings.Repeat(string(SkipPlaceholder), int(tag))...)
				p++

			case tag == TagSeparator:
				name = append(name, '/')
				p++

			default:
				less, next, ok := decodeInt(dir, p+1)
				if !ok {
					break walk
				}
				greater, next2, ok := decodeInt(dir, next)
				if !ok {
					break walk
				}
				// Pop order: less, equal, greater.
				if greater != 0 {
					stack = append(stack, listFrame{p: jumpTarget(next2, greater), nameLen: len(name)})
				}
				stack = append(stack, listFrame{p: next2, nameLen: len(name), pivot: tag})
				if less != 0 {
					stack = append(stack, listFrame{p: jumpTarget(next, less), nameLen: len(name)})
				}
				break walk
			}
		}
	}
}
