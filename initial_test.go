package herring_test

import (
	"bytes"
	"testing"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/generator"
)

type pyToken uint8

const (
	pyIdentifier pyToken = iota
	pyDef
	pyIf
	pyElse
	pyTrue
	pyPass
	pyColon
	pyLPar
	pyRPar
	pyIndent
	pyDedent
)

type indentContext struct {
	indent        int
	pendingIndent int
	pendingDedent int
}

// checkIndent measures the indentation after the newline run the skip
// matched and queues the indent/dedent deltas for the initial hook.
func checkIndent(lex *herring.Lexer[indentContext]) {
	slice := lex.Slice()
	indent := (len(slice) - 1 - bytes.LastIndexByte(slice, '\n')) / 4
	switch {
	case indent > lex.Extras.indent:
		lex.Extras.pendingIndent = indent - lex.Extras.indent
	case indent < lex.Extras.indent:
		lex.Extras.pendingDedent = lex.Extras.indent - indent
	}
	lex.Extras.indent = indent
}

func emitIndentDedent(lex *herring.Lexer[indentContext]) (pyToken, error, bool) {
	if lex.Extras.pendingIndent > 0 {
		lex.Extras.pendingIndent--
		return pyIndent, nil, true
	}
	if lex.Extras.pendingDedent > 0 {
		lex.Extras.pendingDedent--
		return pyDedent, nil, true
	}
	return 0, nil, false
}

func TestIndentDedent(t *testing.T) {
	spec := &generator.Spec{
		Options: generator.Options{
			Package: "pylex", TypeName: "Token",
			ExtrasType: "Context", Initial: "emitIndentDedent",
		},
		Skips: []generator.PatternSpec{
			{Kind: generator.KindRegex, Text: "(\n *)+", Callback: "checkIndent"},
			{Kind: generator.KindRegex, Text: " +"},
		},
		Variants: []generator.Variant{
			{Name: "Identifier", Patterns: []generator.PatternSpec{{Kind: generator.KindRegex, Text: "[a-zA-Z_][a-zA-Z_0-9]*"}}},
			{Name: "Def", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "def"}}},
			{Name: "If", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "if"}}},
			{Name: "Else", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "else"}}},
			{Name: "True", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "True"}}},
			{Name: "Pass", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "pass"}}},
			{Name: "Colon", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: ":"}}},
			{Name: "LPar", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "("}}},
			{Name: "RPar", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: ")"}}},
			{Name: "Indent"},
			{Name: "Dedent"},
		},
	}
	m := buildMachine(t, spec, herring.Bindings[pyToken, indentContext]{
		Tokens: map[string]pyToken{
			"Identifier": pyIdentifier, "Def": pyDef, "If": pyIf, "Else": pyElse,
			"True": pyTrue, "Pass": pyPass, "Colon": pyColon, "LPar": pyLPar,
			"RPar": pyRPar, "Indent": pyIndent, "Dedent": pyDedent,
		},
		SkipCallbacks: map[herring.CallbackKey]herring.SkipCallback[indentContext]{
			{Name: herring.SkipName, Disambiguator: 1}: checkIndent,
		},
		Initial: emitIndentDedent,
	})

	source := "def foo():" +
		"\n    if True:" +
		"\n        bar()" +
		"\n" +
		"\n        pass" +
		"\n    else:" +
		"\n        pass\n"
	l := m.Lexer(herring.Str(source))
	herring.AssertLex(t, m, l, []herring.ExpectedToken[pyToken]{
		ok(pyDef, "def", 0, 3),
		ok(pyIdentifier, "foo", 4, 7),
		ok(pyLPar, "(", 7, 8),
		ok(pyRPar, ")", 8, 9),
		ok(pyColon, ":", 9, 10),
		ok(pyIndent, "", 15, 15),
		ok(pyIf, "if", 15, 17),
		ok(pyTrue, "True", 18, 22),
		ok(pyColon, ":", 22, 23),
		ok(pyIndent, "", 32, 32),
		ok(pyIdentifier, "bar", 32, 35),
		ok(pyLPar, "(", 35, 36),
		ok(pyRPar, ")", 36, 37),
		ok(pyPass, "pass", 47, 51),
		ok(pyDedent, "", 56, 56),
		ok(pyElse, "else", 56, 60),
		ok(pyColon, ":", 60, 61),
		ok(pyIndent, "", 70, 70),
		ok(pyPass, "pass", 70, 74),
		ok(pyDedent, "", 75, 75),
		ok(pyDedent, "", 75, 75),
	})
}
