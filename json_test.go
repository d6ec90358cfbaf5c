package herring_test

import (
	"testing"
	"unicode/utf8"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/generator"
)

type jsonToken uint8

const (
	jsonWhitespace jsonToken = iota
	jsonTrue
	jsonFalse
	jsonNull
	jsonLBrace
	jsonRBrace
	jsonLBrak
	jsonRBrak
	jsonComma
	jsonColon
	jsonString
	jsonNumber
)

type jsonError int

const (
	jsonInvalid jsonError = iota
	jsonUnterminatedString
)

func (e jsonError) Error() string {
	if e == jsonUnterminatedString {
		return "unterminated string"
	}
	return "invalid token"
}

// parseString consumes the body of a string literal after the opening
// quote matched, honoring backslash escapes.
func parseString(lex *herring.Lexer[struct{}]) (jsonToken, error) {
	rem := lex.Remainder()
	for i := 0; i < len(rem); {
		r, size := utf8.DecodeRune(rem[i:])
		switch r {
		case '"':
			lex.Bump(1)
			return jsonString, nil
		case '\\':
			lex.Bump(1)
			i++
			if i < len(rem) {
				_, esc := utf8.DecodeRune(rem[i:])
				lex.Bump(esc)
				i += esc
			}
		default:
			lex.Bump(size)
			i += size
		}
	}
	return 0, jsonUnterminatedString
}

func jsonSpec() *generator.Spec {
	return &generator.Spec{
		Options: generator.Options{Package: "jsonlex", TypeName: "Token", ErrorType: "LexerError"},
		Variants: []generator.Variant{
			{Name: "Whitespace", Patterns: []generator.PatternSpec{{Kind: generator.KindRegex, Text: "[ \n\r\t]+"}}},
			{Name: "True", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "true"}}},
			{Name: "False", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "false"}}},
			{Name: "Null", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "null"}}},
			{Name: "LBrace", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "{"}}},
			{Name: "RBrace", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "}"}}},
			{Name: "LBrak", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "["}}},
			{Name: "RBrak", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: "]"}}},
			{Name: "Comma", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: ","}}},
			{Name: "Colon", Patterns: []generator.PatternSpec{{Kind: generator.KindToken, Text: ":"}}},
			{Name: "String", Patterns: []generator.PatternSpec{{Kind: generator.KindRegex, Text: `"`, Callback: "parseString"}}},
			{Name: "Number", Patterns: []generator.PatternSpec{{Kind: generator.KindRegex, Text: `-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?`}}},
		},
	}
}

func jsonBindings() herring.Bindings[jsonToken, struct{}] {
	return herring.Bindings[jsonToken, struct{}]{
		Tokens: map[string]jsonToken{
			"Whitespace": jsonWhitespace, "True": jsonTrue, "False": jsonFalse,
			"Null": jsonNull, "LBrace": jsonLBrace, "RBrace": jsonRBrace,
			"LBrak": jsonLBrak, "RBrak": jsonRBrak, "Comma": jsonComma,
			"Colon": jsonColon, "Number": jsonNumber,
		},
		TokenCallbacks: map[herring.CallbackKey]herring.TokenCallback[jsonToken, struct{}]{
			{Name: "String"}: parseString,
		},
		NewError: func() error { return jsonInvalid },
	}
}

func TestJSON(t *testing.T) {
	m := buildMachine(t, jsonSpec(), jsonBindings())
	l := m.Lexer(herring.Str(`{"test": [1,2,3]}`))
	herring.AssertLex(t, m, l, []herring.ExpectedToken[jsonToken]{
		ok(jsonLBrace, "{", 0, 1),
		ok(jsonString, `"test"`, 1, 7),
		ok(jsonColon, ":", 7, 8),
		ok(jsonWhitespace, " ", 8, 9),
		ok(jsonLBrak, "[", 9, 10),
		ok(jsonNumber, "1", 10, 11),
		ok(jsonComma, ",", 11, 12),
		ok(jsonNumber, "2", 12, 13),
		ok(jsonComma, ",", 13, 14),
		ok(jsonNumber, "3", 14, 15),
		ok(jsonRBrak, "]", 15, 16),
		ok(jsonRBrace, "}", 16, 17),
	})
}

func TestJSONUnterminatedString(t *testing.T) {
	m := buildMachine(t, jsonSpec(), jsonBindings())
	l := m.Lexer(herring.Str(`"oops`))
	herring.AssertLex(t, m, l, []herring.ExpectedToken[jsonToken]{
		fail[jsonToken](jsonUnterminatedString, `"oops`, 0, 5),
	})
}
