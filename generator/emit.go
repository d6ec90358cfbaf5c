package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"github.com/pkg/errors"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/automata"
)

// Emit renders the compiled program as a Go source file: the token type,
// the shared lookup tables, a constructor wiring the ignore hook, and the
// specialized dispatch function implementing the scanner contract.
//
// The emitted file imports only the herring runtime (plus fmt and os when
// HERRING_DEBUG=log); callbacks and the
// error/extras types are referenced by name and must live in the target
// package (or be selector expressions resolvable there).
func Emit(prog *Program) ([]byte, error) {
	e := &emitter{
		prog:     prog,
		lutIndex: make(map[string]int),
	}
	e.file()
	src := e.buf.Bytes()
	debugDumpSource(prog.Spec.TypeName, src)
	formatted, err := format.Source(src)
	if err != nil {
		return nil, errors.Wrap(err, "formatting generated source")
	}
	return formatted, nil
}

type emitter struct {
	buf  bytes.Buffer
	prog *Program

	// lutIndex assigns global indices to guard patterns that need a
	// bitmap table; identical patterns share an index across states.
	lutIndex    map[string]int
	lutPatterns []automata.Pattern

	jumpStates []automata.StateRef
}

func (e *emitter) w(format string, args ...interface{}) {
	fmt.Fprintf(&e.buf, format, args...)
}

func (e *emitter) errorType() string {
	if t := e.prog.Spec.ErrorType; t != "" {
		return t
	}
	return "herring.DefaultError"
}

func (e *emitter) extrasType() string {
	if t := e.prog.Spec.ExtrasType; t != "" {
		return t
	}
	return "struct{}"
}

func (e *emitter) lexerType() string {
	return fmt.Sprintf("*herring.Lexer[%s]", e.extrasType())
}

func (e *emitter) file() {
	spec := e.prog.Spec
	e.w("// Code generated by herring. DO NOT EDIT.\n\n")
	e.w("package %s\n\n", spec.Package)
	e.w("import (\n")
	if debugLogStates() {
		e.w("\t\"fmt\"\n\t\"os\"\n\n")
	}
	e.w("\therring \"github.com/0x2a-42/herring\"\n)\n\n")

	e.tokenType()
	e.constructor()
	e.lexFunc()
	e.tables()
}

// tokenType emits the token enumeration and its String method.
func (e *emitter) tokenType() {
	spec := e.prog.Spec
	tn := spec.TypeName
	e.w("// %s is the token type scanned by Lex%s.\n", tn, tn)
	e.w("type %s uint8\n\n", tn)
	e.w("const (\n")
	for i, v := range spec.Variants {
		if i == 0 {
			e.w("\t%s%s %s = iota\n", tn, v.Name, tn)
		} else {
			e.w("\t%s%s\n", tn, v.Name)
		}
	}
	e.w(")\n\n")
	e.w("func (t %s) String() string {\n\tswitch t {\n", tn)
	for _, v := range spec.Variants {
		e.w("\tcase %s%s:\n\t\treturn %q\n", tn, v.Name, v.Name)
	}
	e.w("\t}\n\treturn \"%s(invalid)\"\n}\n\n", tn)
}

// constructor emits New<Type>Lexer, wiring the ignore hook when declared.
func (e *emitter) constructor() {
	spec := e.prog.Spec
	tn := spec.TypeName
	e.w("// New%sLexer returns a lexer over source ready for Lex%s.\n", tn, tn)
	switch {
	case spec.Source == "bytes" || (spec.Source == "" && e.prog.Binary):
		e.w("// The scanner matches raw bytes; pass a herring.Bytes source.\n")
	default:
		e.w("// The scanner matches UTF-8 text; pass a herring.Str source.\n")
	}
	e.w("func New%sLexer(source herring.Source) %s {\n", tn, e.lexerType())
	e.w("\tl := herring.NewLexer[%s](source)\n", e.extrasType())
	if spec.IgnoreHook != "" {
		e.w("\tl.Ignore = %s\n", spec.IgnoreHook)
	}
	e.w("\treturn l\n}\n\n")
}

// lexFunc emits the dispatch routine: an outer scan loop restarted by
// skips, an inner state loop with one arm per DFA state, and the
// last-accept commit logic.
func (e *emitter) lexFunc() {
	spec := e.prog.Spec
	tn := spec.TypeName
	dfa := e.prog.DFA
	start := dfa.Start()

	e.w("// Lex%s scans one token. It returns ok == false at end of input;\n", tn)
	e.w("// otherwise err is nil for a token and non-nil for an error span.\n")
	e.w("func Lex%s(lexer %s) (%s, error, bool) {\n", tn, e.lexerType(), tn)
	e.w("\tvar (\n")
	e.w("\t\tlaKind    uint8\n")
	e.w("\t\tlaToken   %s\n", tn)
	e.w("\t\tlaOffset  int\n")
	e.w("\t\tlaTokenCB func(%s) (%s, error)\n", e.lexerType(), tn)
	e.w("\t\tlaSkipCB  func(%s)\n", e.lexerType())
	e.w("\t)\n")
	if e.hasDeadEndSkip() {
		e.w("scan:\n")
	}
	e.w("\tfor {\n")
	e.w("\t\tlexer.Start = lexer.Offset\n")
	if spec.Initial != "" {
		e.w("\t\tif tok, err, ok := %s(lexer); ok {\n\t\t\treturn tok, err, true\n\t\t}\n", spec.Initial)
	}
	e.w("\t\tstate := %d\n", start)
	e.w("\t\tlaKind = 0\n")
	e.w("\tdispatch:\n")
	e.w("\t\tfor {\n")
	e.w("\t\t\tswitch state {\n")
	for i := range dfa.States() {
		e.stateArm(automata.StateRef(i))
	}
	e.w("\t\t\t}\n")
	e.w("\t\t}\n")
	e.commit()
	e.w("\t}\n}\n\n")
}

// commit consults the recorded last accept once dispatch cannot advance.
func (e *emitter) commit() {
	e.w("\t\tswitch laKind {\n")
	e.w("\t\tcase 1:\n")
	e.w("\t\t\tlexer.Offset = laOffset\n")
	e.w("\t\t\treturn laToken, nil, true\n")
	e.w("\t\tcase 2:\n")
	e.w("\t\t\tlexer.Offset = laOffset\n")
	e.w("\t\t\ttok, err := laTokenCB(lexer)\n")
	e.w("\t\t\treturn tok, err, true\n")
	e.w("\t\tcase 3:\n")
	e.w("\t\t\tlexer.Offset = laOffset\n")
	e.w("\t\tcase 4:\n")
	e.w("\t\t\tlexer.Offset = laOffset\n")
	e.w("\t\t\tlaSkipCB(lexer)\n")
	e.w("\t\tdefault:\n")
	e.w("\t\t\tfor !lexer.Source.IsBoundary(lexer.Offset) {\n")
	e.w("\t\t\t\tlexer.Offset++\n")
	e.w("\t\t\t}\n")
	e.w("\t\t\tvar lexErr %s\n", e.errorType())
	e.w("\t\t\treturn 0, lexErr, true\n")
	e.w("\t\t}\n")
}

type acceptInfo struct {
	kind     uint8 // mirrors the laKind encoding; 0 = not accepting
	token    string
	callback string
}

func (e *emitter) acceptInfo(s automata.StateRef) acceptInfo {
	out, ok := e.prog.DFA.AcceptOutput(s)
	if !ok || out == nil {
		return acceptInfo{}
	}
	tn := e.prog.Spec.TypeName
	key := herring.CallbackKey{Name: out.Name, Disambiguator: out.Disambiguator}
	cb := e.prog.Callbacks[key]
	if out.Name == herring.SkipName {
		if cb != "" {
			return acceptInfo{kind: 4, callback: cb}
		}
		return acceptInfo{kind: 3}
	}
	if cb != "" {
		return acceptInfo{kind: 2, callback: cb}
	}
	return acceptInfo{kind: 1, token: tn + out.Name}
}

func (e *emitter) hasDeadEndSkip() bool {
	dfa := e.prog.DFA
	for i, state := range dfa.States() {
		if len(state.Transitions()) > 0 {
			continue
		}
		if a := e.acceptInfo(automata.StateRef(i)); a.kind == 3 || a.kind == 4 {
			return true
		}
	}
	return false
}

// stateArm emits one case of the dispatch switch.
func (e *emitter) stateArm(s automata.StateRef) {
	dfa := e.prog.DFA
	state := &dfa.States()[s]
	accept := e.acceptInfo(s)
	e.w("\t\t\tcase %d:\n", s)
	if debugLogStates() {
		e.w("\t\t\t\tfmt.Fprintf(os.Stderr, \"STATE: %%d\\n\", %d)\n", s)
	}
	ts := state.Transitions()
	if len(ts) == 0 {
		// Dead-end state: commit immediately, or fail if it carries no
		// output (only reachable through never-matching patterns).
		switch accept.kind {
		case 1:
			e.w("\t\t\t\treturn %s, nil, true\n", accept.token)
		case 2:
			e.w("\t\t\t\ttok, err := %s(lexer)\n\t\t\t\treturn tok, err, true\n", accept.callback)
		case 3:
			e.w("\t\t\t\tcontinue scan\n")
		case 4:
			e.w("\t\t\t\t%s(lexer)\n\t\t\t\tcontinue scan\n", accept.callback)
		default:
			e.w("\t\t\t\tbreak dispatch\n")
		}
		return
	}
	e.recordAccept(accept, "\t\t\t\t")
	if useJumpTable(ts) {
		e.jumpArm(s, ts)
	} else {
		e.sparseArm(s, ts, accept)
	}
}

func (e *emitter) recordAccept(accept acceptInfo, indent string) {
	switch accept.kind {
	case 1:
		e.w("%slaKind, laToken, laOffset = 1, %s, lexer.Offset\n", indent, accept.token)
	case 2:
		e.w("%slaKind, laTokenCB, laOffset = 2, %s, lexer.Offset\n", indent, accept.callback)
	case 3:
		e.w("%slaKind, laOffset = 3, lexer.Offset\n", indent)
	case 4:
		e.w("%slaKind, laSkipCB, laOffset = 4, %s, lexer.Offset\n", indent, accept.callback)
	}
}

// eofAction handles a failed byte fetch: rewind the speculative advance,
// then either report end of stream (start state) or fall back to the last
// accept.
func (e *emitter) eofAction(s automata.StateRef, indent string) {
	e.w("%sif !ok {\n", indent)
	e.w("%s\tlexer.Offset--\n", indent)
	if s == e.prog.DFA.Start() {
		e.w("%s\treturn 0, nil, false\n", indent)
	} else {
		e.w("%s\tbreak dispatch\n", indent)
	}
	e.w("%s}\n", indent)
}

// useJumpTable picks the 256-entry table shape for dense states: at least
// three outgoing transitions with at least one true byte range.
func useJumpTable(ts []automata.Transition) bool {
	if len(ts) < 3 {
		return false
	}
	for _, t := range ts {
		for _, r := range t.When.Ranges() {
			if r.Lo != r.Hi {
				return true
			}
		}
	}
	return false
}

// jumpArm emits a jump-table dispatch for one state.
func (e *emitter) jumpArm(s automata.StateRef, ts []automata.Transition) {
	e.jumpStates = append(e.jumpStates, s)
	e.w("\t\t\t\tb, ok := lexer.NextByte()\n")
	e.eofAction(s, "\t\t\t\t")
	e.w("\t\t\t\tswitch %s[b] {\n", e.jumpName(s))
	for i, t := range ts {
		e.w("\t\t\t\tcase %d:\n\t\t\t\t\tstate = %d\n", i, t.To)
	}
	e.w("\t\t\t\tdefault:\n\t\t\t\t\tbreak dispatch\n")
	e.w("\t\t\t\t}\n")
}

// sparseArm emits guarded pattern branches. A transition back to the same
// state turns the arm into a tight inner loop so runs of one byte class
// never re-enter the outer dispatch.
func (e *emitter) sparseArm(s automata.StateRef, ts []automata.Transition, accept acceptInfo) {
	selfLoop, exits := false, false
	for _, t := range ts {
		if t.To == s {
			selfLoop = true
		} else {
			exits = true
		}
	}
	indent := "\t\t\t\t"
	if selfLoop {
		e.w("%sfor {\n", indent)
		indent += "\t"
	}
	e.w("%sb, ok := lexer.NextByte()\n", indent)
	e.eofAction(s, indent)
	e.w("%sswitch {\n", indent)
	for _, t := range ts {
		e.w("%scase %s:\n", indent, e.guard(&t.When))
		if t.To == s {
			e.recordAccept(accept, indent+"\t")
			e.w("%s\tcontinue\n", indent)
		} else {
			e.w("%s\tstate = %d\n", indent, t.To)
		}
	}
	e.w("%sdefault:\n%s\tbreak dispatch\n", indent, indent)
	e.w("%s}\n", indent)
	if selfLoop {
		if exits {
			e.w("%sbreak\n", indent)
		}
		e.w("\t\t\t\t}\n")
	}
}

// guard renders the byte test for a pattern. Multi-range patterns go
// through a shared 256-bit bitmap table; simple shapes become direct
// comparisons.
func (e *emitter) guard(p *automata.Pattern) string {
	trueRanges, singles := 0, 0
	for _, r := range p.Ranges() {
		if r.Lo != r.Hi {
			trueRanges++
		} else {
			singles++
		}
	}
	if trueRanges > 1 || (trueRanges == 1 && singles > 0) {
		idx := e.lutIndexFor(p)
		return fmt.Sprintf("%s[b]&0x%02X != 0", e.lutName(idx/8), 1<<(idx%8))
	}
	var parts []string
	for _, r := range p.Ranges() {
		if r.Lo == r.Hi {
			parts = append(parts, fmt.Sprintf("b == %s", byteLit(r.Lo)))
		} else {
			parts = append(parts, fmt.Sprintf("%s <= b && b <= %s", byteLit(r.Lo), byteLit(r.Hi)))
		}
	}
	return strings.Join(parts, " || ")
}

func (e *emitter) lutIndexFor(p *automata.Pattern) int {
	key := p.Key()
	if idx, ok := e.lutIndex[key]; ok {
		return idx
	}
	idx := len(e.lutPatterns)
	e.lutIndex[key] = idx
	e.lutPatterns = append(e.lutPatterns, *p)
	return idx
}

func (e *emitter) lutName(table int) string {
	return fmt.Sprintf("_%sLUT%d", e.prog.Spec.TypeName, table)
}

func (e *emitter) jumpName(s automata.StateRef) string {
	return fmt.Sprintf("_%sJump%d", e.prog.Spec.TypeName, s)
}

// tables emits the shared bitmap tables (eight patterns per 256-byte
// array) and the per-state jump tables, packed after the code so the
// dispatch function stays at the top of the file.
func (e *emitter) tables() {
	if len(e.lutPatterns) > 0 {
		tableCount := (len(e.lutPatterns) + 7) / 8
		for table := 0; table < tableCount; table++ {
			var lut [256]uint8
			for i, p := range e.lutPatterns {
				if i/8 != table {
					continue
				}
				mask := uint8(1) << (i % 8)
				for b := 0; b < 256; b++ {
					if p.Contains(byte(b)) {
						lut[b] |= mask
					}
				}
			}
			e.byteTable(e.lutName(table), lut)
		}
	}
	dfa := e.prog.DFA
	for _, s := range e.jumpStates {
		var jump [256]uint8
		for b := 0; b < 256; b++ {
			jump[b] = 0xFF
			for i, t := range dfa.States()[s].Transitions() {
				if t.When.Contains(byte(b)) {
					jump[b] = uint8(i)
					break
				}
			}
		}
		e.byteTable(e.jumpName(s), jump)
	}
}

func (e *emitter) byteTable(name string, table [256]uint8) {
	e.w("var %s = [256]uint8{\n", name)
	for row := 0; row < 16; row++ {
		e.w("\t")
		for col := 0; col < 16; col++ {
			e.w("0x%02X, ", table[row*16+col])
		}
		e.w("\n")
	}
	e.w("}\n\n")
}

// byteLit renders a byte as a Go literal, preferring character form for
// graphic ASCII.
func byteLit(b byte) string {
	switch {
	case b == '\'' || b == '\\':
		return fmt.Sprintf("'\\%c'", b)
	case b > 0x20 && b < 0x7F:
		return fmt.Sprintf("'%c'", b)
	default:
		return fmt.Sprintf("0x%02X", b)
	}
}
