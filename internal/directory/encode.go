package directory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/storedbg/internal/types"
)

var (
	ErrEmptyName     = errors.New("directory: empty name")
	ErrInvalidName   = errors.New("directory: invalid character in name")
	ErrDuplicateName = errors.New("directory: duplicate name")
	ErrInvalidType   = errors.New("directory: invalid type")
)

// Object is one (name, type, location) tuple fed to the encoder. Offset is
// the byte offset of a variable or the id of a function. Len is only
// encoded for types without a fixed size.
type Object struct {
	Name   string
	Type   types.Type
	Offset uint64
	Len    int
}

// EncodeOptions tunes the encoder.
type EncodeOptions struct {
	// Skip emits skip nodes for runs that every remaining name shares. This
	// shrinks the directory, but the skipped characters are no longer
	// checked and List reports them as SkipPlaceholder.
	Skip bool
}

// Encode builds the directory for objs.
func Encode(objs []Object, opts EncodeOptions) ([]byte, error) {
	sorted := make([]Object, len(objs))
	copy(sorted, objs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for i, o := range sorted {
		if err := validateObject(o); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Name == o.Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, o.Name)
		}
	}

	enc := encoder{opts: opts}
	out := enc.node(sorted, 0)
	// A trailing end marker keeps an empty directory well formed.
	return append(out, TagEnd), nil
}

func validateObject(o Object) error {
	if o.Name == "" {
		return ErrEmptyName
	}
	for i := 0; i < len(o.Name); i++ {
		if c := o.Name[i]; c <= TagMaxSkip || c >= TagLeaf {
			return fmt.Errorf("%w: %q at %d", ErrInvalidName, o.Name, i)
		}
	}
	if !o.Type.Valid() || o.Type == types.Void {
		return fmt.Errorf("%w: %s for %q", ErrInvalidType, o.Type, o.Name)
	}
	if !o.Type.IsFixed() && o.Len < 0 {
		return fmt.Errorf("%w: negative length for %q", ErrInvalidType, o.Name)
	}
	return nil
}

type encoder struct {
	opts EncodeOptions
}

// charAt returns the character at pos, or 0 past the end of the name.
func charAt(o Object, pos int) byte {
	if pos < len(o.Name) {
		return o.Name[pos]
	}
	return 0
}

// node encodes objs, sorted and sharing their first pos characters.
func (e encoder) node(objs []Object, pos int) []byte {
	if len(objs) == 0 {
		return nil
	}
	if len(objs) == 1 && len(objs[0].Name) == pos {
		return appendLeaf(nil, objs[0])
	}

	if e.opts.Skip {
		if n := commonRun(objs, pos); n > 0 {
			var out []byte
			for left := n; left > 0; {
				step := min(left, int(TagMaxSkip))
				out = append(out, byte(step))
				left -= step
			}
			return append(out, e.node(objs, pos+n)...)
		}
	}

	first, last := charAt(objs[0], pos), charAt(objs[len(objs)-1], pos)
	if first == '/' && last == '/' {
		return append([]byte{TagSeparator}, e.node(objs, pos+1)...)
	}

	pivot := choosePivot(objs, pos)
	var less, equal, greater []Object
	for _, o := range objs {
		switch c := charAt(o, pos); {
		case c < pivot:
			less = append(less, o)
		case c > pivot:
			greater = append(greater, o)
		default:
			equal = append(equal, o)
		}
	}

	eq := e.node(equal, pos+1)
	if len(eq) == 0 {
		eq = []byte{TagEnd}
	}
	return appendBranch(pivot, eq, e.node(less, pos), e.node(greater, pos))
}

// commonRun counts the characters from pos that all objs share, stopping
// at a separator or the end of any name.
func commonRun(objs []Object, pos int) int {
	n := 0
	for {
		c := charAt(objs[0], pos+n)
		if c == 0 || c == '/' {
			return n
		}
		for _, o := range objs[1:] {
			if charAt(o, pos+n) != c {
				return n
			}
		}
		n++
	}
}

// choosePivot picks the distinct character at pos closest to the median,
// skipping the end of name and '/', which cannot be pivots. When only those
// two remain, a space splits them.
func choosePivot(objs []Object, pos int) byte {
	var distinct []byte
	for _, o := range objs {
		c := charAt(o, pos)
		if len(distinct) == 0 || distinct[len(distinct)-1] != c {
			distinct = append(distinct, c)
		}
	}
	mid := len(distinct) / 2
	for d := 0; d <= len(distinct); d++ {
		for _, i := range []int{mid - d, mid + d} {
			if i < 0 || i >= len(distinct) {
				continue
			}
			if c := distinct[i]; c != 0 && c != '/' {
				return c
			}
		}
	}
	return ' '
}

func appendLeaf(b []byte, o Object) []byte {
	b = append(b, byte(o.Type)|TagLeaf)
	if !o.Type.IsFixed() {
		b = appendInt(b, uint64(o.Len))
	}
	return appendInt(b, o.Offset)
}

// appendBranch lays out pivot, less jump, greater jump, then the equal,
// less and greater subtrees. Jumps are relative to the end of their own
// varint; since their width depends on their value, sizes are iterated
// until stable.
func appendBranch(pivot byte, eq, less, greater []byte) []byte {
	a, b := 1, 1
	var jl, jg uint64
	for {
		lessAt := 1 + a + b + len(eq)
		greaterAt := lessAt + len(less)
		jl, jg = 0, 0
		if len(less) > 0 {
			jl = uint64(lessAt - a)
		}
		if len(greater) > 0 {
			jg = uint64(greaterAt - a - b)
		}
		if intLen(jl) == a && intLen(jg) == b {
			break
		}
		a, b = intLen(jl), intLen(jg)
	}

	out := make([]byte, 0, 1+a+b+len(eq)+len(less)+len(greater))
	out = append(out, pivot)
	out = appendInt(out, jl)
	out = appendInt(out, jg)
	out = append(out, eq...)
	out = append(out, less...)
	return append(out, greater...)
}
