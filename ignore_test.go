package herring_test

import (
	"bytes"
	"testing"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/generator"
)

type identToken uint8

const identIdentifier identToken = 0

// ignoreEscapedNewline consumes a backslash-newline continuation before
// every byte fetch, so identifiers may span physical lines.
func ignoreEscapedNewline(lex *herring.Lexer[struct{}]) {
	if bytes.HasPrefix(lex.Remainder(), []byte("\\\n")) {
		lex.Bump(2)
	}
}

func TestIgnoreHookEscapedNewline(t *testing.T) {
	spec := &generator.Spec{
		Options: generator.Options{
			Package: "identlex", TypeName: "Token", IgnoreHook: "ignoreEscapedNewline",
		},
		Skips: []generator.PatternSpec{{Kind: generator.KindRegex, Text: "[ \n]+"}},
		Variants: []generator.Variant{
			{Name: "Identifier", Patterns: []generator.PatternSpec{{Kind: generator.KindRegex, Text: "[a-zA-Z][a-zA-Z_0-9]*"}}},
		},
	}
	m := buildMachine(t, spec, herring.Bindings[identToken, struct{}]{
		Tokens: map[string]identToken{"Identifier": identIdentifier},
		Ignore: ignoreEscapedNewline,
	})
	l := m.Lexer(herring.Str("foo\n b\\\nar"))
	herring.AssertLex(t, m, l, []herring.ExpectedToken[identToken]{
		ok(identIdentifier, "foo", 0, 3),
		ok(identIdentifier, "b\\\nar", 5, 10),
	})
}
