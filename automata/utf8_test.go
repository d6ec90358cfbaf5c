package automata

import (
	"testing"
	"unicode/utf8"
)

// matchSeq reports whether the byte string is accepted by the range
// sequence.
func matchSeq(seq []ByteRange, bytes []byte) bool {
	if len(seq) != len(bytes) {
		return false
	}
	for i, r := range seq {
		if bytes[i] < r.Lo || bytes[i] > r.Hi {
			return false
		}
	}
	return true
}

func matchAny(seqs [][]ByteRange, r rune) bool {
	var buf [4]byte
	n := utf8.EncodeRune(buf[:], r)
	for _, seq := range seqs {
		if matchSeq(seq, buf[:n]) {
			return true
		}
	}
	return false
}

func TestUtf8SequencesAscii(t *testing.T) {
	seqs := utf8Sequences('0', '9')
	if len(seqs) != 1 || len(seqs[0]) != 1 {
		t.Fatalf("ASCII range should be one single-byte sequence, got %v", seqs)
	}
	if seqs[0][0] != (ByteRange{Lo: '0', Hi: '9'}) {
		t.Errorf("got %v", seqs[0][0])
	}
}

func TestUtf8SequencesCoverRange(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi rune
	}{
		{"latin-1 letters", 0xC0, 0xFF},
		{"greek block", 0x0370, 0x03FF},
		{"across 2/3-byte boundary", 0x700, 0x900},
		{"cjk", 0x4E00, 0x4E80},
		{"astral", 0x1F600, 0x1F64F},
		{"across 3/4-byte boundary", 0xFF00, 0x10100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seqs := utf8Sequences(tt.lo, tt.hi)
			for r := tt.lo; r <= tt.hi; r++ {
				if !matchAny(seqs, r) {
					t.Fatalf("%U not covered", r)
				}
			}
			for _, r := range []rune{tt.lo - 1, tt.hi + 1} {
				if r >= 0 && utf8.ValidRune(r) && matchAny(seqs, r) {
					t.Errorf("%U outside the range is covered", r)
				}
			}
		})
	}
}

func TestUtf8SequencesSkipSurrogates(t *testing.T) {
	seqs := utf8Sequences(0xD000, 0xE100)
	for r := rune(0xD800); r <= 0xDFFF; r++ {
		var buf [4]byte
		// Surrogates are not encodable; probe with the bytes their
		// hypothetical 3-byte pattern would use.
		buf[0] = byte(0xE0 | r>>12)
		buf[1] = byte(0x80 | (r>>6)&0x3F)
		buf[2] = byte(0x80 | r&0x3F)
		for _, seq := range seqs {
			if matchSeq(seq, buf[:3]) {
				t.Fatalf("surrogate encoding %U covered", r)
			}
		}
	}
	if !matchAny(seqs, 0xD7FF) || !matchAny(seqs, 0xE000) {
		t.Error("scalars flanking the surrogate gap must stay covered")
	}
}

func TestUtf8SequencesFullRange(t *testing.T) {
	seqs := utf8Sequences(0, 0x10FFFF)
	for _, r := range []rune{0, 'a', 0x7F, 0x80, 0x7FF, 0x800, 0xD7FF, 0xE000, 0xFFFF, 0x10000, 0x10FFFF} {
		if !matchAny(seqs, r) {
			t.Errorf("%U not covered by full-range sequences", r)
		}
	}
	for _, seq := range seqs {
		if len(seq) < 1 || len(seq) > 4 {
			t.Errorf("sequence of invalid length %d", len(seq))
		}
	}
}
