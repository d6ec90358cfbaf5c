package herring

import (
	"fmt"

	"github.com/0x2a-42/herring/automata"
)

// CallbackKey identifies a pattern's callback slot: the variant name plus
// the disambiguator separating several patterns on the same variant.
type CallbackKey struct {
	Name          string
	Disambiguator int
}

// TokenCallback runs when a token pattern commits. The lexer's span covers
// the match; the callback may consume further input and returns the token
// or an error.
type TokenCallback[T, E any] func(*Lexer[E]) (T, error)

// SkipCallback runs when a skip pattern commits.
type SkipCallback[E any] func(*Lexer[E])

// InitialHook runs at the top of every dispatch call, before the DFA sees
// any input. Returning ok emits the given result immediately; producer
// hooks use this for virtual tokens such as INDENT/DEDENT.
type InitialHook[T, E any] func(*Lexer[E]) (T, error, bool)

// Bindings connect a compiled DFA's abstract outputs to concrete token
// values and functions.
type Bindings[T, E any] struct {
	// Tokens maps variant names to token values. Every non-skip output of
	// the DFA that has no token callback must be bound here.
	Tokens map[string]T
	// TokenCallbacks and SkipCallbacks are keyed by (name, disambiguator).
	TokenCallbacks map[CallbackKey]TokenCallback[T, E]
	SkipCallbacks  map[CallbackKey]SkipCallback[E]
	// Initial is the per-call producer hook, Ignore the per-byte hook.
	Initial InitialHook[T, E]
	Ignore  func(*Lexer[E])
	// NewError constructs the error for unmatched input. Nil means
	// DefaultError.
	NewError func() error
}

type acceptKind uint8

const (
	acceptNone acceptKind = iota
	acceptToken
	acceptTokenCallback
	acceptSkip
	acceptSkipCallback
)

type acceptEntry[T, E any] struct {
	kind    acceptKind
	token   T
	tokenCB TokenCallback[T, E]
	skipCB  SkipCallback[E]
}

// Machine is a table-driven scanner over a minimized DFA: a 256-entry
// transition row per state plus an accept entry per state. It implements
// the same dispatch contract as code emitted by the generator.
type Machine[T, E any] struct {
	next     [][256]int32
	accepts  []acceptEntry[T, E]
	hasTrans []bool
	start    int32
	initial  InitialHook[T, E]
	ignore   func(*Lexer[E])
	newError func() error
}

// NewMachine flattens dfa into transition tables and resolves its outputs
// against the bindings. Outputs naming unbound tokens are an error.
func NewMachine[T, E any](dfa *automata.DFA, b Bindings[T, E]) (*Machine[T, E], error) {
	states := dfa.States()
	m := &Machine[T, E]{
		next:     make([][256]int32, len(states)),
		accepts:  make([]acceptEntry[T, E], len(states)),
		hasTrans: make([]bool, len(states)),
		start:    int32(dfa.Start()),
		initial:  b.Initial,
		ignore:   b.Ignore,
		newError: b.NewError,
	}
	if m.newError == nil {
		m.newError = func() error { return DefaultError{} }
	}
	for i := range states {
		row := &m.next[i]
		for j := range row {
			row[j] = -1
		}
		ts := states[i].Transitions()
		m.hasTrans[i] = len(ts) > 0
		for _, t := range ts {
			for _, r := range t.When.Ranges() {
				for b := int(r.Lo); b <= int(r.Hi); b++ {
					row[b] = int32(t.To)
				}
			}
		}
		out, ok := dfa.AcceptOutput(automata.StateRef(i))
		if !ok || out == nil {
			continue
		}
		key := CallbackKey{Name: out.Name, Disambiguator: out.Disambiguator}
		entry := &m.accepts[i]
		if out.Name == SkipName {
			if cb, ok := b.SkipCallbacks[key]; ok {
				entry.kind = acceptSkipCallback
				entry.skipCB = cb
			} else {
				entry.kind = acceptSkip
			}
			continue
		}
		if cb, ok := b.TokenCallbacks[key]; ok {
			entry.kind = acceptTokenCallback
			entry.tokenCB = cb
			continue
		}
		tok, ok := b.Tokens[out.Name]
		if !ok {
			return nil, fmt.Errorf("no token value bound for output %q", out.Name)
		}
		entry.kind = acceptToken
		entry.token = tok
	}
	return m, nil
}

// Lexer returns a fresh lexer over source with the machine's ignore hook
// installed.
func (m *Machine[T, E]) Lexer(source Source) *Lexer[E] {
	l := NewLexer[E](source)
	l.Ignore = m.ignore
	return l
}

// LexerWithExtras is Lexer with explicit initial extras.
func (m *Machine[T, E]) LexerWithExtras(source Source, extras E) *Lexer[E] {
	l := NewLexerWithExtras(source, extras)
	l.Ignore = m.ignore
	return l
}

// NextSpanned is Next paired with the span of what was consumed.
func (m *Machine[T, E]) NextSpanned(l *Lexer[E]) (T, error, Span, bool) {
	tok, err, ok := m.Next(l)
	return tok, err, l.Span(), ok
}

type pendingAccept struct {
	kind   acceptKind
	state  int32
	offset int
}

// Next scans one token. It returns ok == false at end of input; otherwise
// err is nil for a token and non-nil for an error span. Skips restart the
// scan internally and are never surfaced.
func (m *Machine[T, E]) Next(l *Lexer[E]) (T, error, bool) {
	var zero T
scan:
	for {
		l.Start = l.Offset
		if m.initial != nil {
			if tok, err, ok := m.initial(l); ok {
				return tok, err, true
			}
		}
		state := m.start
		last := pendingAccept{kind: acceptNone}
	dispatch:
		for {
			entry := &m.accepts[state]
			if entry.kind != acceptNone {
				if !m.hasTrans[state] {
					// Dead-end accept: commit without touching another byte.
					switch entry.kind {
					case acceptToken:
						return entry.token, nil, true
					case acceptTokenCallback:
						tok, err := entry.tokenCB(l)
						return tok, err, true
					case acceptSkipCallback:
						entry.skipCB(l)
						continue scan
					case acceptSkip:
						continue scan
					}
				}
				last = pendingAccept{kind: entry.kind, state: state, offset: l.Offset}
			}
			b, ok := l.NextByte()
			if !ok {
				l.Offset--
				if state == m.start {
					return zero, nil, false
				}
				break dispatch
			}
			next := m.next[state][b]
			if next < 0 {
				break dispatch
			}
			state = next
		}
		switch last.kind {
		case acceptNone:
			for !l.Source.IsBoundary(l.Offset) {
				l.Offset++
			}
			return zero, m.newError(), true
		case acceptToken:
			l.Offset = last.offset
			return m.accepts[last.state].token, nil, true
		case acceptTokenCallback:
			l.Offset = last.offset
			tok, err := m.accepts[last.state].tokenCB(l)
			return tok, err, true
		case acceptSkip:
			l.Offset = last.offset
		case acceptSkipCallback:
			// Commit the offset first, then run the callback, then restart.
			l.Offset = last.offset
			m.accepts[last.state].skipCB(l)
		}
	}
}
