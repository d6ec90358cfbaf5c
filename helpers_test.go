package herring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/generator"
)

func intPtr(n int) *int {
	return &n
}

// buildMachine compiles a spec and binds it into a runtime machine.
func buildMachine[T comparable, E any](t *testing.T, spec *generator.Spec, b herring.Bindings[T, E]) *herring.Machine[T, E] {
	t.Helper()
	prog, err := generator.Build(spec)
	require.NoError(t, err)
	m, err := herring.NewMachine(prog.DFA, b)
	require.NoError(t, err)
	return m
}

func ok[T any](tok T, slice string, start, end int) herring.ExpectedToken[T] {
	return herring.ExpectedToken[T]{Token: tok, Slice: slice, Span: herring.Span{Start: start, End: end}}
}

func fail[T any](err error, slice string, start, end int) herring.ExpectedToken[T] {
	return herring.ExpectedToken[T]{Err: err, Slice: slice, Span: herring.Span{Start: start, End: end}}
}
