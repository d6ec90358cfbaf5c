// Package herring is the scanner runtime for the herring lexer generator.
//
// The generator (see the generator package and cmd/herring) turns a
// declarative token description into a minimized DFA and emits a
// specialized Go dispatch function against the types in this package:
// a Source abstraction over byte and UTF-8 string inputs, and a Lexer
// record carrying the current token span and user extras.
//
// The package also provides Machine, a table-driven scanner assembled
// directly from a compiled DFA. It implements the same contract as
// emitted code — longest match with priority tie-breaking, skip
// patterns, per-token callbacks, initial and ignore hooks — and doubles
// as the reference implementation the emitter's code shape follows. The
// module's tests run the Machine; emitted code is checked as source text
// and is not executed.
package herring

import "fmt"

// Span is the byte range [Start, End) a token occupies in its source.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// SkipName is the reserved output name under which skip patterns are
// registered. It can never collide with a token variant: variant names
// are exported Go identifiers.
const SkipName = "skip"

// DefaultError is the error produced for unmatched input when a lexer
// declares no custom error type.
type DefaultError struct{}

func (DefaultError) Error() string {
	return "invalid token"
}
