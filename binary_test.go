package herring_test

import (
	"testing"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/generator"
)

type binToken uint8

const (
	binFoo binToken = iota
	binLife
	binAaaaaaa
	binCafeBeef
	binZero
)

func binarySpec() *generator.Spec {
	return &generator.Spec{
		Options: generator.Options{Package: "binlex", TypeName: "Token", Source: "bytes"},
		Variants: []generator.Variant{
			{Name: "Foo", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "foo"}}},
			{Name: "Life", Patterns: []generator.PatternSpec{{Kind: generator.KindRegexBytes, Text: `\x42+`}}},
			{Name: "Aaaaaaa", Patterns: []generator.PatternSpec{{Kind: generator.KindRegexBytes, Text: `[\xA0-\xAF]+`}}},
			{Name: "CafeBeef", Patterns: []generator.PatternSpec{{Kind: generator.KindTokenBytes, Bytes: []byte{0xCA, 0xFE, 0xBE, 0xEF}}}},
			{Name: "Zero", Patterns: []generator.PatternSpec{{Kind: generator.KindTokenBytes, Bytes: []byte{0x00}}}},
		},
	}
}

func TestHandlesNonUTF8(t *testing.T) {
	m := buildMachine(t, binarySpec(), herring.Bindings[binToken, struct{}]{
		Tokens: map[string]binToken{
			"Foo": binFoo, "Life": binLife, "Aaaaaaa": binAaaaaaa,
			"CafeBeef": binCafeBeef, "Zero": binZero,
		},
	})
	input := []byte{
		0, 0, 0xCA, 0xFE, 0xBE, 0xEF, 'f', 'o', 'o', 0x42, 0x42, 0x42,
		0xAA, 0xAA, 0xA2, 0xAE, 0x10, 0x20, 0,
	}
	l := m.Lexer(herring.Bytes(input))
	herring.AssertLex(t, m, l, []herring.ExpectedToken[binToken]{
		ok(binZero, "\x00", 0, 1),
		ok(binZero, "\x00", 1, 2),
		ok(binCafeBeef, "\xca\xfe\xbe\xef", 2, 6),
		ok(binFoo, "foo", 6, 9),
		ok(binLife, "\x42\x42\x42", 9, 12),
		ok(binAaaaaaa, "\xaa\xaa\xa2\xae", 12, 16),
		fail[binToken](herring.DefaultError{}, "\x10", 16, 17),
		fail[binToken](herring.DefaultError{}, "\x20", 17, 18),
		ok(binZero, "\x00", 18, 19),
	})
}
