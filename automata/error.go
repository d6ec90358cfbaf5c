package automata

import (
	"errors"
	"fmt"
)

// Errors for regex constructs the lexer generator cannot support. A DFA
// scanner has no backtracking, so look-around and non-greedy repetition
// have no meaningful translation.
var (
	ErrLookaround = errors.New("herring does not support look-around")
	ErrNonGreedy  = errors.New("herring does not support non-greedy repetitions")
)

// CompileError wraps a failure to turn a regex pattern into an NFA.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("cannot compile pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("cannot compile pattern: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// UndefinedSubpatternError is reported when a regex references a
// subpattern name that was never defined.
type UndefinedSubpatternError struct {
	Name string
}

func (e *UndefinedSubpatternError) Error() string {
	if e.Name == "" {
		return "use of undefined subpattern"
	}
	return fmt.Sprintf("use of undefined subpattern `%s`", e.Name)
}

// SubpatternLoopError is reported when subpattern substitution fails to
// reach a fixpoint, i.e. a subpattern expands to itself.
type SubpatternLoopError struct {
	Pattern string
}

func (e *SubpatternLoopError) Error() string {
	return fmt.Sprintf("subpattern substitution in %q does not terminate", e.Pattern)
}
