package herring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ExpectedToken is one step of an AssertLex expectation: the result (a
// token value or an error), the matched slice, and its span.
type ExpectedToken[T any] struct {
	Token T
	Err   error
	Slice string
	Span  Span
}

// AssertLex drains the lexer through the machine and asserts the exact
// (result, slice, span) sequence, then end of input.
func AssertLex[T comparable, E any](t *testing.T, m *Machine[T, E], l *Lexer[E], expected []ExpectedToken[T]) {
	t.Helper()
	for i, want := range expected {
		tok, err, ok := m.Next(l)
		require.True(t, ok, "unexpected end of input at token %d", i)
		if want.Err != nil {
			require.Equal(t, want.Err, err, "token %d: error mismatch", i)
		} else {
			require.NoError(t, err, "token %d", i)
			require.Equal(t, want.Token, tok, "token %d", i)
		}
		require.Equal(t, want.Slice, string(l.Slice()), "token %d: slice", i)
		require.Equal(t, want.Span, l.Span(), "token %d: span", i)
	}
	_, _, ok := m.Next(l)
	require.False(t, ok, "expected end of input")
}
