// Package automata implements the finite automata underlying the herring
// lexer generator: a pattern algebra over byte ranges, an arena-based state
// table shared by NFAs and DFAs, an extended Thompson construction over the
// regexp/syntax tree, subset construction and Hopcroft minimization.
//
// States are owned by their automaton and referenced exclusively through
// StateRef indices; transition labels are byte-set Patterns, with the empty
// pattern acting as an epsilon edge (NFA only).
package automata

import (
	"errors"
	"fmt"
)

// ErrEpsilonInDFA is reported when an epsilon transition is added to a
// deterministic automaton. This always indicates a construction bug.
var ErrEpsilonInDFA = errors.New("cannot add epsilon transition to DFA")

// StateRef is an index into an automaton's state vector.
type StateRef uint32

// InvalidState is a StateRef that never indexes a valid state.
const InvalidState StateRef = 0xFFFFFFFF

// Transition is an outgoing edge labelled with a byte pattern. An empty
// pattern is an epsilon edge.
type Transition struct {
	When Pattern
	To   StateRef
}

// State is an ordered list of outgoing transitions.
type State struct {
	transitions []Transition
}

// Transitions returns the outgoing transitions of the state.
func (s *State) Transitions() []Transition {
	return s.transitions
}

// Output is the token identity attached to an accepting state.
// Disambiguator is 0 unless several patterns share the same variant name,
// in which case positive values keep their callbacks apart.
type Output struct {
	Priority      int
	Name          string
	Disambiguator int
}

func (o Output) String() string {
	if o.Disambiguator > 0 {
		return fmt.Sprintf("%s: %d", o.Name, o.Disambiguator)
	}
	return o.Name
}

// ConflictError is reported when two tokens of equal priority may match the
// same word.
type ConflictError struct {
	Existing Output
	New      Output
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tokens `%s` and `%s` both have priority %d and may match the same word",
		e.Existing.Name, e.New.Name, e.Existing.Priority)
}

// Automaton is an arena of states with an accept map. The deterministic
// marker distinguishes DFAs (no epsilon edges, disjoint outgoing patterns)
// from NFAs.
type Automaton struct {
	start         StateRef
	states        []State
	accepts       map[StateRef]*Output
	deterministic bool
}

// NFA is a nondeterministic automaton: epsilon transitions are allowed and
// outgoing patterns may overlap.
type NFA struct {
	Automaton
}

// DFA is a deterministic automaton: no epsilon transitions, and for every
// (state, byte) at most one outgoing transition matches.
type DFA struct {
	Automaton
}

// NewNFA returns an NFA with a single start state and no accepts.
func NewNFA() *NFA {
	return &NFA{Automaton: newAutomaton(false)}
}

// NewDFA returns a DFA with a single start state and no accepts.
func NewDFA() *DFA {
	return &DFA{Automaton: newAutomaton(true)}
}

func newAutomaton(deterministic bool) Automaton {
	return Automaton{
		start:         0,
		states:        []State{{}},
		accepts:       make(map[StateRef]*Output),
		deterministic: deterministic,
	}
}

// Start returns the start state.
func (a *Automaton) Start() StateRef {
	return a.start
}

// States returns the state vector. Indices are StateRefs.
func (a *Automaton) States() []State {
	return a.states
}

// Len returns the number of states.
func (a *Automaton) Len() int {
	return len(a.states)
}

// AcceptOutput reports whether s is accepting and, if so, its output.
// The output is nil for structurally accepting states with no token
// identity (they only occur during NFA construction).
func (a *Automaton) AcceptOutput(s StateRef) (*Output, bool) {
	out, ok := a.accepts[s]
	return out, ok
}

// AcceptedStates returns the accept map.
func (a *Automaton) AcceptedStates() map[StateRef]*Output {
	return a.accepts
}

// Add appends a fresh non-accepting state and returns its ref.
func (a *Automaton) Add() StateRef {
	id := StateRef(len(a.states))
	a.states = append(a.states, State{})
	return id
}

// AddAccept appends a fresh accepting state with no output.
func (a *Automaton) AddAccept() StateRef {
	id := a.Add()
	a.SetAccept(id)
	return id
}

// AddTransition appends an outgoing transition from -> to labelled when.
// If a transition to the same target already exists and either both edges
// are non-epsilon or both are epsilon, the patterns are coalesced instead.
// Adding an epsilon edge to a DFA panics: it indicates a construction bug,
// never a user error.
func (a *Automaton) AddTransition(from StateRef, when Pattern, to StateRef) {
	if a.deterministic && when.IsEmpty() {
		panic(ErrEpsilonInDFA)
	}
	ts := a.states[from].transitions
	for i := range ts {
		if ts[i].To != to {
			continue
		}
		if (!ts[i].When.IsEmpty() && !when.IsEmpty()) || ts[i].When.Equal(&when) {
			ts[i].When.Union(&when)
			return
		}
	}
	a.states[from].transitions = append(ts, Transition{When: when, To: to})
}

// SetAccept marks a state accepting with no output.
func (a *Automaton) SetAccept(s StateRef) {
	a.accepts[s] = nil
}

// SetAcceptOutput attaches an output to an accepting state. When the state
// already carries an output the conflict policy applies: a higher-priority
// output stays, a lower-priority one is overwritten, and equal priorities
// with different outputs fail.
func (a *Automaton) SetAcceptOutput(s StateRef, output *Output) error {
	if output == nil {
		// A structural accept never displaces a token identity.
		if _, ok := a.accepts[s]; !ok {
			a.accepts[s] = nil
		}
		return nil
	}
	if current, ok := a.accepts[s]; ok && current != nil {
		switch {
		case current.Priority > output.Priority:
			return nil
		case current.Priority == output.Priority:
			if *current != *output {
				return &ConflictError{Existing: *current, New: *output}
			}
			return nil
		}
	}
	a.accepts[s] = output
	return nil
}

// Append concatenates other's states at the end of a's state vector,
// shifting transition targets and accept keys by the offset, and returns
// the re-based start of other.
func (a *Automaton) Append(other *NFA) StateRef {
	offset := StateRef(len(a.states))
	for _, state := range other.states {
		shifted := State{transitions: make([]Transition, len(state.transitions))}
		for i, t := range state.transitions {
			shifted.transitions[i] = Transition{When: t.When, To: t.To + offset}
		}
		a.states = append(a.states, shifted)
	}
	for s, out := range other.accepts {
		a.accepts[s+offset] = out
	}
	return other.start + offset
}

// Token is a build-time record pairing a per-pattern NFA with the priority
// and identity of the token it recognizes.
type Token struct {
	NFA           *NFA
	Priority      int
	Name          string
	Disambiguator int
}
