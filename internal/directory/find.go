package directory

import "github.com/danmuck/storedbg/internal/types"

// Node tags from the directory contract.
const (
	TagEnd       byte = 0x00
	TagMaxSkip   byte = 0x1f
	TagSeparator byte = '/'
	TagLeaf      byte = 0x80
)

// Entry is the location a leaf resolves to: a byte offset into the bound
// buffer for variables, or a function id for functions. The zero Entry is
// the "not found" result.
type Entry struct {
	Type   types.Type
	Offset uint64
	Len    int
	ok     bool
}

func (e Entry) Valid() bool { return e.ok }

func (e Entry) IsFunction() bool { return e.ok && e.Type.IsFunction() }

// FunctionID is the callback id of a function leaf.
func (e Entry) FunctionID() uint { return uint(e.Offset) }

// Find walks dir for name. Cost is linear in len(name) and nothing is
// allocated. A leaf only matches once name is fully consumed; any other
// outcome, including a malformed directory, yields the zero Entry.
func Find(dir []byte, name string) Entry {
	if len(dir) == 0 || name == "" {
		return Entry{}
	}

	p, i := 0, 0
	for {
		if p < 0 || p >= len(dir) {
			return Entry{}
		}
		tag := dir[p]
		switch {
		case tag == TagEnd:
			return Entry{}

		case tag >= TagLeaf:
			if i != len(name) {
				return Entry{}
			}
			e, _, ok := decodeLeaf(dir, p)
			if !ok {
				return Entry{}
			}
			return e

		case tag <= TagMaxSkip:
			for n := int(tag); n > 0; n-- {
				if i >= len(name) || name[i] == '/' {
					return Entry{}
				}
				i++
			}
			p++

		case tag == TagSeparator:
			if i >= len(name) || name[i] != '/' {
				return Entry{}
			}
			i++
			p++

		default:
			var c byte
			if i < len(name) {
				c = name[i]
			}
			p++
			if c < tag {
				jmp, next, ok := decodeInt(dir, p)
				if !ok {
					return Entry{}
				}
				p = jumpTarget(next, jmp)
				continue
			}
			next, ok := skipInt(dir, p)
			if !ok {
				return Entry{}
			}
			if c > tag {
				jmp, next, ok := decodeInt(dir, next)
				if !ok {
					return Entry{}
				}
				p = jumpTarget(next, jmp)
				continue
			}
			if p, ok = skipInt(dir, next); !ok {
				return Entry{}
			}
			i++
		}
	}
}

// decodeLeaf reads the leaf at p: tag, length when the type is not fixed,
// then offset or function id.
func decodeLeaf(dir []byte, p int) (Entry, int, bool) {
	t := types.Type(dir[p] ^ TagLeaf)
	p++
	size := t.Size()
	if !t.IsFixed() {
		l, next, ok := decodeInt(dir, p)
		if !ok || l > uint64(1<<31) {
			return Entry{}, p, false
		}
		size, p = int(l), next
	}
	off, next, ok := decodeInt(dir, p)
	if !ok {
		return Entry{}, p, false
	}
	return Entry{Type: t, Offset: off, Len: size, ok: true}, next, true
}
