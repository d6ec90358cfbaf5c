package automata

import "unicode/utf8"

// scalarRange is an inclusive range of Unicode scalar values.
type scalarRange struct {
	start rune
	end   rune
}

const maxUTF8Bytes = 4

// maxScalarValue returns the largest scalar encodable in nbytes of UTF-8.
func maxScalarValue(nbytes int) rune {
	switch nbytes {
	case 1:
		return 0x7F
	case 2:
		return 0x7FF
	case 3:
		return 0xFFFF
	default:
		return 0x10FFFF
	}
}

// utf8Sequences decomposes the scalar range [lo, hi] into byte-range
// sequences: a byte string matches one of the returned sequences exactly
// when it is the UTF-8 encoding of a scalar in the range. The surrogate
// gap U+D800..U+DFFF is excluded.
//
// Each sequence has 1 to 4 ranges; position i of a sequence constrains
// byte i of the encoding. Splitting follows the regex-automata scheme:
// first around the surrogate gap, then at encoded-length boundaries, then
// at 6-bit payload boundaries so that trailing bytes always cover full
// ranges whenever leading bytes differ.
func utf8Sequences(lo, hi rune) [][]ByteRange {
	if lo > hi {
		return nil
	}
	var seqs [][]ByteRange
	stack := []scalarRange{{start: lo, end: hi}}
outer:
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for {
			if r.start < 0xE000 && r.end > 0xD7FF {
				stack = append(stack, scalarRange{start: 0xE000, end: r.end})
				r.end = 0xD7FF
				continue
			}
			if r.start > r.end {
				continue outer
			}
			if split, rest := splitAtLengthBoundary(r); split {
				stack = append(stack, rest)
				r.end = rest.start - 1
				continue
			}
			if r.end <= 0x7F {
				seqs = append(seqs, []ByteRange{{Lo: byte(r.start), Hi: byte(r.end)}})
				continue outer
			}
			if split, rest, trimmed := splitAtPayloadBoundary(r); split {
				stack = append(stack, rest)
				r = trimmed
				continue
			}
			seqs = append(seqs, encodeRangePair(r.start, r.end))
			continue outer
		}
	}
	return seqs
}

// splitAtLengthBoundary splits r at the first encoded-length boundary it
// straddles, returning the upper part; r must be shortened to rest.start-1.
func splitAtLengthBoundary(r scalarRange) (bool, scalarRange) {
	for i := 1; i < maxUTF8Bytes; i++ {
		max := maxScalarValue(i)
		if r.start <= max && max < r.end {
			return true, scalarRange{start: max + 1, end: r.end}
		}
	}
	return false, scalarRange{}
}

// splitAtPayloadBoundary aligns r to 6-bit payload boundaries: when the
// leading bytes of the encodings of start and end differ, the range is
// split so that every trailing byte position covers its full range.
func splitAtPayloadBoundary(r scalarRange) (bool, scalarRange, scalarRange) {
	for i := 1; i < maxUTF8Bytes; i++ {
		m := rune(1)<<(6*uint(i)) - 1
		if (r.start &^ m) == (r.end &^ m) {
			continue
		}
		if (r.start & m) != 0 {
			rest := scalarRange{start: (r.start | m) + 1, end: r.end}
			return true, rest, scalarRange{start: r.start, end: r.start | m}
		}
		if (r.end & m) != m {
			rest := scalarRange{start: r.end &^ m, end: r.end}
			return true, rest, scalarRange{start: r.start, end: (r.end &^ m) - 1}
		}
	}
	return false, scalarRange{}, scalarRange{}
}

// encodeRangePair encodes two scalars of equal UTF-8 length into a
// per-byte range sequence.
func encodeRangePair(lo, hi rune) []ByteRange {
	var s, e [4]byte
	n := utf8.EncodeRune(s[:], lo)
	utf8.EncodeRune(e[:], hi)
	seq := make([]ByteRange, n)
	for i := 0; i < n; i++ {
		seq[i] = ByteRange{Lo: s[i], Hi: e[i]}
	}
	return seq
}
