package automata

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"sort"
	"strings"
	"unicode"

	"github.com/projectdiscovery/fasttemplate"

	"github.com/0x2a-42/herring/internal/sparse"
)

// NewTokenizer unions the per-token NFAs into a single tokenizer NFA:
// every accept of a token NFA receives that token's output, and a fresh
// start state fans out to each token's start through epsilon edges.
func NewTokenizer(tokens []Token) *NFA {
	a := NewNFA()
	for _, tok := range tokens {
		out := &Output{Priority: tok.Priority, Name: tok.Name, Disambiguator: tok.Disambiguator}
		for s := range tok.NFA.accepts {
			tok.NFA.accepts[s] = out
		}
		start := a.Append(tok.NFA)
		a.addEpsilon(a.start, start)
	}
	return a
}

// AcceptsEmpty reports whether the NFA accepts the empty word, i.e. the
// epsilon closure of the start state contains an accepting state. Token
// and skip patterns that accept the empty word are rejected at build time.
func (n *NFA) AcceptsEmpty() bool {
	set := sparse.NewSet(n.Len())
	set.Insert(uint32(n.start))
	n.epsilonClosure(set)
	for _, s := range set.Values() {
		if _, ok := n.accepts[StateRef(s)]; ok {
			return true
		}
	}
	return false
}

// hirPriority is the regex priority heuristic used by logos: literals are
// worth two per character, classes two total, concatenations add up, and
// alternations take their weakest branch.
func hirPriority(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		return 2 * len(re.Rune)
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return 2
	case syntax.OpCapture:
		return hirPriority(re.Sub[0])
	case syntax.OpConcat:
		sum := 0
		for _, sub := range re.Sub {
			sum += hirPriority(sub)
		}
		return sum
	case syntax.OpAlternate:
		min := 0
		for i, sub := range re.Sub {
			if p := hirPriority(sub); i == 0 || p < min {
				min = p
			}
		}
		return min
	case syntax.OpPlus:
		return hirPriority(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min * hirPriority(re.Sub[0])
	default:
		// Empty matches, look-arounds, star and quest contribute nothing.
		return 0
	}
}

const maxSubpatternDepth = 100

// ReplaceSubpatterns expands (?&name) references through textual
// substitution until a fixpoint is reached. Each expansion is wrapped in a
// group so precedence survives the splice. A reference that never resolves
// is an undefined-subpattern error; an expansion that keeps growing past
// the depth limit is reported as a substitution loop.
func ReplaceSubpatterns(value string, subpatterns map[string]string) (string, error) {
	original := value
	if len(subpatterns) > 0 {
		repl := make(map[string]interface{}, len(subpatterns))
		for name, pattern := range subpatterns {
			repl[name] = "(" + pattern + ")"
		}
		expanding := true
		for i := 0; i < maxSubpatternDepth && expanding; i++ {
			replaced := fasttemplate.ExecuteStringStd(value, "(?&", ")", repl)
			expanding = replaced != value
			value = replaced
		}
		if expanding {
			return "", &SubpatternLoopError{Pattern: original}
		}
	}
	if start := strings.Index(value, "(?&"); start >= 0 {
		rest := value[start+3:]
		if end := strings.IndexByte(rest, ')'); end >= 0 {
			return "", &UndefinedSubpatternError{Name: rest[:end]}
		}
		return "", &UndefinedSubpatternError{}
	}
	return value, nil
}

// FromRegexpWithSubpatterns expands subpattern references in regex and
// compiles the result. It returns the NFA and the heuristic priority.
func FromRegexpWithSubpatterns(regex string, subpatterns map[string]string, ignoreCase, binary bool) (*NFA, int, error) {
	expanded, err := ReplaceSubpatterns(regex, subpatterns)
	if err != nil {
		return nil, 0, &CompileError{Pattern: regex, Err: err}
	}
	return FromRegexp(expanded, ignoreCase, binary)
}

// FromRegexp compiles a regex into an NFA via extended Thompson
// construction over the regexp/syntax tree. In binary mode character
// classes and literals are interpreted bytewise (scalars above 0xFF are
// rejected); otherwise Unicode classes are expanded into UTF-8 byte
// automata. The returned int is the heuristic priority.
func FromRegexp(regex string, ignoreCase, binary bool) (*NFA, int, error) {
	flags := syntax.Perl
	if ignoreCase {
		flags |= syntax.FoldCase
	}
	if binary {
		flags &^= syntax.UnicodeGroups
	}
	re, err := syntax.Parse(regex, flags)
	if err != nil {
		return nil, 0, &CompileError{Pattern: regex, Err: err}
	}
	prio := hirPriority(re)
	n, err := fromHir(re, binary)
	if err != nil {
		return nil, 0, &CompileError{Pattern: regex, Err: err}
	}
	return n, prio, nil
}

// FromToken compiles a literal token string by escaping it into a regex.
func FromToken(token string, ignoreCase bool) (*NFA, int, error) {
	return FromRegexp(regexp.QuoteMeta(token), ignoreCase, false)
}

// FromBytes compiles a raw byte literal into a chain of byte transitions.
// With ignoreCase, ASCII letters widen into two-byte classes.
func FromBytes(bytes []byte, ignoreCase bool) *NFA {
	a := NewNFA()
	last := a.start
	for _, b := range bytes {
		next := a.Add()
		p := PatternFromByte(b)
		if ignoreCase {
			p.CaseFoldASCII()
		}
		a.AddTransition(last, p, next)
		last = next
	}
	a.SetAccept(last)
	return a
}

// fromHir is the extended Thompson construction. Every syntax.Op is either
// handled or rejected with a diagnostic; look-arounds and non-greedy
// repetitions have no DFA translation.
func fromHir(re *syntax.Regexp, binary bool) (*NFA, error) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		a := NewNFA()
		end := a.AddAccept()
		a.addEpsilon(a.start, end)
		return a, nil
	case syntax.OpNoMatch:
		// An accept that nothing reaches: the empty language.
		a := NewNFA()
		a.AddAccept()
		return a, nil
	case syntax.OpLiteral:
		return literalNFA(re.Rune, re.Flags&syntax.FoldCase != 0, binary)
	case syntax.OpCharClass:
		return classNFA(re.Rune, binary), nil
	case syntax.OpAnyChar:
		return anyCharNFA(binary, true), nil
	case syntax.OpAnyCharNotNL:
		return anyCharNFA(binary, false), nil
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return nil, ErrLookaround
	case syntax.OpCapture:
		return fromHir(re.Sub[0], binary)
	case syntax.OpConcat:
		if len(re.Sub) == 0 {
			return fromHir(&syntax.Regexp{Op: syntax.OpEmptyMatch}, binary)
		}
		a, err := fromHir(re.Sub[0], binary)
		if err != nil {
			return nil, err
		}
		for _, sub := range re.Sub[1:] {
			b, err := fromHir(sub, binary)
			if err != nil {
				return nil, err
			}
			a.concat(b)
		}
		return a, nil
	case syntax.OpAlternate:
		a := NewNFA()
		for _, sub := range re.Sub {
			b, err := fromHir(sub, binary)
			if err != nil {
				return nil, err
			}
			start := a.Append(b)
			a.addEpsilon(a.start, start)
		}
		old := a.takeAccepts()
		end := a.Add()
		for s := range old {
			a.addEpsilon(s, end)
		}
		a.SetAccept(end)
		return a, nil
	case syntax.OpQuest:
		if err := checkGreedy(re); err != nil {
			return nil, err
		}
		return questNFA(re.Sub[0], binary)
	case syntax.OpStar:
		if err := checkGreedy(re); err != nil {
			return nil, err
		}
		return starNFA(re.Sub[0], binary)
	case syntax.OpPlus:
		if err := checkGreedy(re); err != nil {
			return nil, err
		}
		return plusNFA(re.Sub[0], binary)
	case syntax.OpRepeat:
		if err := checkGreedy(re); err != nil {
			return nil, err
		}
		return repeatNFA(re.Sub[0], re.Min, re.Max, binary)
	default:
		return nil, fmt.Errorf("unsupported regex op %v", re.Op)
	}
}

func checkGreedy(re *syntax.Regexp) error {
	if re.Flags&syntax.NonGreedy != 0 {
		return ErrNonGreedy
	}
	return nil
}

// literalNFA builds a chain for a literal. With the FoldCase flag each
// rune becomes a class of its simple case foldings (the parser stores only
// the smallest rune of each fold orbit), so "é" under ignore-case matches
// exactly {é, É}.
func literalNFA(runes []rune, foldCase, binary bool) (*NFA, error) {
	if len(runes) == 0 {
		return fromHir(&syntax.Regexp{Op: syntax.OpEmptyMatch}, binary)
	}
	if binary {
		bs := make([]byte, len(runes))
		for i, r := range runes {
			if r > 0xFF {
				return nil, fmt.Errorf("scalar %U does not fit a byte in binary mode", r)
			}
			bs[i] = byte(r)
		}
		return FromBytes(bs, foldCase), nil
	}
	if !foldCase {
		return FromBytes([]byte(string(runes)), false), nil
	}
	a := NewNFA()
	a.SetAccept(a.start)
	for _, r := range runes {
		a.concat(fromUnicodeClass(foldOrbit(r)))
	}
	return a, nil
}

// foldOrbit returns the simple case-fold orbit of r as sorted rune pairs.
func foldOrbit(r rune) []rune {
	orbit := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		orbit = append(orbit, f)
	}
	sort.Slice(orbit, func(i, j int) bool { return orbit[i] < orbit[j] })
	pairs := make([]rune, 0, 2*len(orbit))
	for _, o := range orbit {
		pairs = append(pairs, o, o)
	}
	return pairs
}

// classNFA builds a single-transition construction for a character class.
// Binary mode clamps the rune ranges to the byte alphabet.
func classNFA(pairs []rune, binary bool) *NFA {
	if binary {
		a := NewNFA()
		var ranges []ByteRange
		for i := 0; i+1 < len(pairs); i += 2 {
			lo, hi := pairs[i], pairs[i+1]
			if lo > 0xFF {
				continue
			}
			if hi > 0xFF {
				hi = 0xFF
			}
			ranges = append(ranges, ByteRange{Lo: byte(lo), Hi: byte(hi)})
		}
		end := a.Add()
		if len(ranges) > 0 {
			a.AddTransition(a.start, PatternFromRanges(ranges), end)
		}
		a.SetAccept(end)
		return a
	}
	return fromUnicodeClass(pairs)
}

// anyCharNFA builds `.`: any byte in binary mode, any scalar otherwise.
func anyCharNFA(binary, includeNL bool) *NFA {
	if binary {
		a := NewNFA()
		end := a.Add()
		if includeNL {
			a.AddTransition(a.start, PatternFromRange(0x00, 0xFF), end)
		} else {
			a.AddTransition(a.start, PatternFromRanges([]ByteRange{{Lo: 0x00, Hi: 0x09}, {Lo: 0x0B, Hi: 0xFF}}), end)
		}
		a.SetAccept(end)
		return a
	}
	if includeNL {
		return fromUnicodeClass([]rune{0, 0x10FFFF})
	}
	return fromUnicodeClass([]rune{0, 0x09, 0x0B, 0x10FFFF})
}

// fromUnicodeClass expands rune ranges into UTF-8 byte-class chains.
// Tails shared between sequences are memoized by a packed key of the
// remaining ranges, which keeps the automaton small; the result stays
// nondeterministic and is disambiguated during subset construction.
func fromUnicodeClass(pairs []rune) *NFA {
	a := NewNFA()
	start := a.start
	end := a.Add()
	suffix := make(map[uint64]StateRef)
	for i := 0; i+1 < len(pairs); i += 2 {
		for _, seq := range utf8Sequences(pairs[i], pairs[i+1]) {
			prev := start
			for j := 0; j < len(seq)-1; j++ {
				key := suffixKey(seq[j+1:])
				state, ok := suffix[key]
				if !ok {
					state = a.Add()
					suffix[key] = state
				}
				a.AddTransition(prev, PatternFromRange(seq[j].Lo, seq[j].Hi), state)
				prev = state
			}
			last := seq[len(seq)-1]
			a.AddTransition(prev, PatternFromRange(last.Lo, last.Hi), end)
		}
	}
	a.SetAccept(end)
	return a
}

func suffixKey(ranges []ByteRange) uint64 {
	var key uint64
	for _, r := range ranges {
		key = key<<8 | uint64(r.Lo)
		key = key<<8 | uint64(r.Hi)
	}
	return key
}

// questNFA makes the inner automaton optional: epsilon edges from the
// start to every accept.
func questNFA(sub *syntax.Regexp, binary bool) (*NFA, error) {
	a, err := fromHir(sub, binary)
	if err != nil {
		return nil, err
	}
	for _, s := range a.sortedAccepts() {
		a.addEpsilon(a.start, s)
	}
	return a, nil
}

// starNFA is zero-or-more: the inner automaton loops through its accepts,
// wrapped so the whole construction accepts the empty word too.
func starNFA(sub *syntax.Regexp, binary bool) (*NFA, error) {
	inner, err := fromHir(sub, binary)
	if err != nil {
		return nil, err
	}
	for _, s := range inner.sortedAccepts() {
		inner.addEpsilon(s, inner.start)
	}
	a := NewNFA()
	a.SetAccept(a.start)
	a.concat(inner)
	old := a.takeAccepts()
	end := a.AddAccept()
	for s := range old {
		a.addEpsilon(s, end)
	}
	a.addEpsilon(a.start, end)
	return a, nil
}

// plusNFA is one-or-more: epsilon edges from every accept back to the start.
func plusNFA(sub *syntax.Regexp, binary bool) (*NFA, error) {
	a, err := fromHir(sub, binary)
	if err != nil {
		return nil, err
	}
	for _, s := range a.sortedAccepts() {
		a.addEpsilon(s, a.start)
	}
	return a, nil
}

// repeatNFA assembles x{min,max}: min concatenated copies, then either
// max-min optional copies or, for an open upper bound, one freely looping
// copy.
func repeatNFA(sub *syntax.Regexp, min, max int, binary bool) (*NFA, error) {
	inner, err := fromHir(sub, binary)
	if err != nil {
		return nil, err
	}
	var a *NFA
	if min > 0 {
		a = inner.clone()
	} else {
		a = NewNFA()
		a.SetAccept(a.start)
	}
	for i := 1; i < min; i++ {
		a.concat(inner.clone())
	}
	switch {
	case max >= 0 && max > min:
		maybe := inner.clone()
		for _, s := range maybe.sortedAccepts() {
			maybe.addEpsilon(maybe.start, s)
		}
		for i := min; i < max; i++ {
			a.concat(maybe.clone())
		}
	case max < 0:
		repeat := inner.clone()
		for _, s := range repeat.sortedAccepts() {
			repeat.addEpsilon(repeat.start, s)
			repeat.addEpsilon(s, repeat.start)
		}
		a.concat(repeat)
	}
	return a, nil
}

// concat appends other to n: n's accepts lose their accepting role and
// bridge into other's start through epsilon edges.
func (n *NFA) concat(other *NFA) {
	old := n.takeAccepts()
	start := n.Append(other)
	for s := range old {
		n.addEpsilon(s, start)
	}
}

func (n *NFA) addEpsilon(from, to StateRef) {
	n.AddTransition(from, EmptyPattern(), to)
}

// takeAccepts empties the accept map and returns the previous one.
func (n *NFA) takeAccepts() map[StateRef]*Output {
	old := n.accepts
	n.accepts = make(map[StateRef]*Output)
	return old
}

// sortedAccepts returns the accepting states in index order.
func (n *NFA) sortedAccepts() []StateRef {
	refs := make([]StateRef, 0, len(n.accepts))
	for s := range n.accepts {
		refs = append(refs, s)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// clone returns a deep copy of the NFA, including transition patterns:
// Union mutates range slices in place, so clones must not share them.
// Outputs are shared; they are immutable once attached.
func (n *NFA) clone() *NFA {
	c := NewNFA()
	c.start = n.start
	c.states = make([]State, len(n.states))
	for i, s := range n.states {
		ts := make([]Transition, len(s.transitions))
		for j, t := range s.transitions {
			ts[j] = Transition{
				When: Pattern{ranges: append([]ByteRange(nil), t.When.ranges...)},
				To:   t.To,
			}
		}
		c.states[i] = State{transitions: ts}
	}
	for s, out := range n.accepts {
		c.accepts[s] = out
	}
	return c
}

// epsilonClosure grows set with every state reachable through epsilon
// edges alone.
func (n *NFA) epsilonClosure(set *sparse.Set) {
	for i := 0; i < set.Len(); i++ {
		s := StateRef(set.Values()[i])
		for _, t := range n.states[s].transitions {
			if t.When.IsEmpty() {
				set.Insert(uint32(t.To))
			}
		}
	}
}
