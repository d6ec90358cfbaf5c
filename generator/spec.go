// Package generator turns a declarative token specification into a
// minimized DFA and emits a specialized Go scanner for it.
//
// The spec model mirrors what the spec parser delivers: named variants
// carrying literal or regex patterns with optional priority overrides,
// case folding and callbacks, plus enum-level options (error and extras
// types, skip patterns, subpatterns, initial and ignore hooks). Build
// compiles the spec through the automata pipeline; Emit renders the
// resulting DFA as Go source against the herring runtime.
package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PatternKind selects how a pattern's text is interpreted.
type PatternKind string

const (
	// KindToken is a literal string, matched verbatim.
	KindToken PatternKind = "token"
	// KindRegex is a regular expression over UTF-8 text.
	KindRegex PatternKind = "regex"
	// KindTokenBytes is a literal byte sequence; the lexer becomes binary.
	KindTokenBytes PatternKind = "token-bytes"
	// KindRegexBytes is a regular expression over raw bytes.
	KindRegexBytes PatternKind = "regex-bytes"
)

// PatternSpec is one pattern attached to a variant or registered as a
// skip.
type PatternSpec struct {
	Kind PatternKind
	// Text is the literal or regex source for the text kinds.
	Text string
	// Bytes is the raw data for the byte kinds.
	Bytes []byte
	// Priority overrides the heuristic priority when non-nil.
	Priority *int
	// IgnoreCase requests case-insensitive matching.
	IgnoreCase bool
	// Callback names a function in the generated package, invoked when
	// the pattern commits.
	Callback string
}

// Variant is a named token with zero or more patterns. A variant without
// patterns is a plain enum value, typically produced by hooks.
type Variant struct {
	Name     string
	Patterns []PatternSpec
}

// Options are the enum-level settings of a spec.
type Options struct {
	// Package is the package name of the generated file.
	Package string
	// TypeName is the name of the generated token type.
	TypeName string
	// ErrorType is the Go type of scan errors; it must be
	// zero-constructible and implement error. Empty means
	// herring.DefaultError.
	ErrorType string
	// ExtrasType is the Go type of the lexer extras; empty means struct{}.
	ExtrasType string
	// Source selects the input flavour: "string" (UTF-8) or "bytes".
	// Empty defaults to "string", or "bytes" when any pattern is binary.
	Source string
	// Initial names the per-call producer hook.
	Initial string
	// IgnoreHook names the per-byte ignore hook.
	IgnoreHook string
}

// Spec is a complete lexer description.
type Spec struct {
	Options
	Subpatterns map[string]string
	Skips       []PatternSpec
	Variants    []Variant
}

// ShapeError reports a malformed spec: the collaborator delivered
// something outside the contract.
type ShapeError struct {
	Context string
	Reason  string
}

func (e *ShapeError) Error() string {
	if e.Context == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Reason)
}

func (s *Spec) validate() error {
	if s.TypeName == "" {
		return &ShapeError{Reason: "missing token type name"}
	}
	if !isExportedIdent(s.TypeName) {
		return &ShapeError{Context: s.TypeName, Reason: "token type name must be an exported identifier"}
	}
	if s.Package == "" {
		return &ShapeError{Reason: "missing package name"}
	}
	switch s.Source {
	case "", "string", "bytes":
	default:
		return &ShapeError{Context: s.Source, Reason: "source must be \"string\" or \"bytes\""}
	}
	seen := make(map[string]bool, len(s.Variants))
	for _, v := range s.Variants {
		if !isExportedIdent(v.Name) {
			return &ShapeError{Context: v.Name, Reason: "variant name must be an exported identifier"}
		}
		if seen[v.Name] {
			return &ShapeError{Context: v.Name, Reason: "variant declared twice"}
		}
		seen[v.Name] = true
		for _, p := range v.Patterns {
			if err := validatePattern(v.Name, p); err != nil {
				return err
			}
		}
	}
	for _, p := range s.Skips {
		if err := validatePattern("skip", p); err != nil {
			return err
		}
	}
	return nil
}

func validatePattern(context string, p PatternSpec) error {
	switch p.Kind {
	case KindToken, KindRegex:
		if p.Text == "" {
			return &ShapeError{Context: context, Reason: "pattern has no text"}
		}
	case KindTokenBytes, KindRegexBytes:
		if len(p.Bytes) == 0 && p.Text == "" {
			return &ShapeError{Context: context, Reason: "byte pattern has no data"}
		}
	default:
		return &ShapeError{Context: context, Reason: fmt.Sprintf("unknown pattern kind %q", p.Kind)}
	}
	if p.Priority != nil && *p.Priority < 0 {
		return &ShapeError{Context: context, Reason: "priority must be non-negative"}
	}
	return nil
}

func isExportedIdent(name string) bool {
	if name == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(r) {
		return false
	}
	for _, r := range name[size:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// BytesToRegex renders a raw byte literal as an equivalent regex source:
// bytes up to 0x7F appear literally (regex-escaped), larger ones as \xNN.
func BytesToRegex(bytes []byte) string {
	var sb strings.Builder
	for _, b := range bytes {
		if b <= 0x7F {
			if strings.ContainsRune(`\.+*?()|[]{}^$`, rune(b)) {
				sb.WriteByte('\\')
			}
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, `\x%02X`, b)
		}
	}
	return sb.String()
}
