package directory

// maxIntBytes bounds varints to what fits a uint64.
const maxIntBytes = 10

// decodeInt reads one varint starting at p: 7-bit groups, most significant
// group first, high bit set on every byte except the last.
func decodeInt(dir []byte, p int) (v uint64, next int, ok bool) {
	for n := 0; p < len(dir) && n < maxIntBytes; n++ {
		b := dir[p]
		p++
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, p, true
		}
	}
	return 0, p, false
}

// skipInt steps past one varint without computing its value.
func skipInt(dir []byte, p int) (next int, ok bool) {
	for n := 0; p < len(dir) && n < maxIntBytes; n++ {
		b := dir[p]
		p++
		if b&0x80 == 0 {
			return p, true
		}
	}
	return p, false
}

func appendInt(b []byte, v uint64) []byte {
	var tmp [maxIntBytes]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	v >>= 7
	for v > 0 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
		v >>= 7
	}
	return append(b, tmp[i:]...)
}

func intLen(v uint64) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// jumpTarget resolves a jump varint that ended at next. A zero jump lands on
// the varint's own trailing 0x00, which reads as the end marker.
func jumpTarget(next int, jmp uint64) int {
	if jmp > uint64(1<<31) {
		return -1
	}
	return next + int(jmp) - 1
}
