package generator

import (
	"github.com/coregx/ahocorasick"
	"github.com/pkg/errors"
	"github.com/projectdiscovery/gologger"

	herring "github.com/0x2a-42/herring"
	"github.com/0x2a-42/herring/automata"
)

// Program is the compiled form of a spec: the minimized DFA plus the
// metadata the emitter and the runtime machine need to bind it.
type Program struct {
	Spec *Spec
	// DFA is the minimized automaton; outputs carry variant names, with
	// herring.SkipName reserved for skip patterns.
	DFA *automata.DFA
	// Binary reports whether any pattern is a byte pattern; it selects
	// the byte source flavour.
	Binary bool
	// Callbacks maps (name, disambiguator) outputs to callback names.
	Callbacks map[herring.CallbackKey]string
}

type dedupKey struct {
	text       string
	ignoreCase bool
	binary     bool
}

// Build compiles every pattern of the spec into an NFA, unions them into
// a tokenizer, determinizes and minimizes. All build-time diagnostics —
// shape violations, unsupported constructs, undefined subpatterns,
// empty-match patterns, duplicate patterns and priority conflicts —
// surface here with the offending pattern named.
func Build(spec *Spec) (*Program, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	b := &builder{
		spec:      spec,
		callbacks: make(map[herring.CallbackKey]string),
		tokenSet:  make(map[dedupKey]bool),
		regexSet:  make(map[dedupKey]bool),
	}
	for _, p := range spec.Skips {
		if err := b.addSkip(p); err != nil {
			return nil, err
		}
	}
	for _, v := range spec.Variants {
		if err := b.addVariant(v); err != nil {
			return nil, err
		}
	}
	reportLiteralOverlaps(spec)

	nfa := automata.NewTokenizer(b.tokens)
	debugGraph(nfa, "nfa")
	dfa, err := nfa.Determinize()
	if err != nil {
		return nil, err
	}
	debugGraph(dfa, "dfa")
	min := dfa.Minimize()
	debugGraph(min, "min")

	return &Program{
		Spec:      spec,
		DFA:       min,
		Binary:    b.binary,
		Callbacks: b.callbacks,
	}, nil
}

type builder struct {
	spec       *Spec
	tokens     []automata.Token
	callbacks  map[herring.CallbackKey]string
	tokenSet   map[dedupKey]bool
	regexSet   map[dedupKey]bool
	binary     bool
	skipNumber int
}

func (b *builder) addSkip(p PatternSpec) error {
	number := 0
	if p.Callback != "" {
		b.skipNumber++
		number = b.skipNumber
		b.callbacks[herring.CallbackKey{Name: herring.SkipName, Disambiguator: number}] = p.Callback
	}
	nfa, prio, err := b.compile(p)
	if err != nil {
		return errors.Wrap(err, "skip pattern")
	}
	if nfa.AcceptsEmpty() {
		return errors.Errorf("skip regex %q matches empty word", b.patternText(p))
	}
	b.tokens = append(b.tokens, automata.Token{
		NFA:           nfa,
		Priority:      prio,
		Name:          herring.SkipName,
		Disambiguator: number,
	})
	return nil
}

func (b *builder) addVariant(v Variant) error {
	number := 0
	for _, p := range v.Patterns {
		n := 0
		if p.Callback != "" {
			if len(v.Patterns) > 1 {
				number++
				n = number
			}
			b.callbacks[herring.CallbackKey{Name: v.Name, Disambiguator: n}] = p.Callback
		}
		nfa, prio, err := b.compile(p)
		if err != nil {
			return errors.Wrapf(err, "variant %s", v.Name)
		}
		if nfa.AcceptsEmpty() {
			return errors.Errorf("variant %s: token regex %q matches empty word", v.Name, b.patternText(p))
		}
		b.tokens = append(b.tokens, automata.Token{
			NFA:           nfa,
			Priority:      prio,
			Name:          v.Name,
			Disambiguator: n,
		})
	}
	return nil
}

// compile builds the NFA and priority of one pattern, applying the
// duplicate check and any priority override.
func (b *builder) compile(p PatternSpec) (*automata.NFA, int, error) {
	var (
		nfa  *automata.NFA
		prio int
		err  error
	)
	switch p.Kind {
	case KindToken:
		if err := b.checkDuplicate(b.tokenSet, "token", p.Text, p.IgnoreCase, false); err != nil {
			return nil, 0, err
		}
		nfa, prio, err = automata.FromToken(p.Text, p.IgnoreCase)
	case KindTokenBytes:
		text := BytesToRegex(p.Bytes)
		if err := b.checkDuplicate(b.tokenSet, "token", text, p.IgnoreCase, true); err != nil {
			return nil, 0, err
		}
		b.binary = true
		nfa = automata.FromBytes(p.Bytes, p.IgnoreCase)
		prio = 2 * len(p.Bytes)
	case KindRegex:
		if err := b.checkDuplicate(b.regexSet, "regex", p.Text, p.IgnoreCase, false); err != nil {
			return nil, 0, err
		}
		nfa, prio, err = automata.FromRegexpWithSubpatterns(p.Text, b.spec.Subpatterns, p.IgnoreCase, false)
	case KindRegexBytes:
		text := p.Text
		if text == "" {
			text = BytesToRegex(p.Bytes)
		}
		if err := b.checkDuplicate(b.regexSet, "regex", text, p.IgnoreCase, true); err != nil {
			return nil, 0, err
		}
		b.binary = true
		nfa, prio, err = automata.FromRegexpWithSubpatterns(text, b.spec.Subpatterns, p.IgnoreCase, true)
	}
	if err != nil {
		return nil, 0, err
	}
	if p.Priority != nil {
		prio = *p.Priority
	}
	return nfa, prio, nil
}

func (b *builder) checkDuplicate(set map[dedupKey]bool, kind, text string, ignoreCase, binary bool) error {
	key := dedupKey{text: text, ignoreCase: ignoreCase, binary: binary}
	if set[key] {
		return errors.Errorf("identical %s %q was already used", kind, text)
	}
	set[key] = true
	return nil
}

func (b *builder) patternText(p PatternSpec) string {
	if p.Text != "" {
		return p.Text
	}
	return BytesToRegex(p.Bytes)
}

// reportLiteralOverlaps builds an Aho-Corasick automaton over all literal
// tokens and logs, at debug level, literals contained in other literals.
// Longest match already resolves these; the note helps when a grammar
// behaves surprisingly. Advisory only: any failure is ignored.
func reportLiteralOverlaps(spec *Spec) {
	type literal struct {
		name string
		data []byte
	}
	var literals []literal
	for _, v := range spec.Variants {
		for _, p := range v.Patterns {
			switch p.Kind {
			case KindToken:
				literals = append(literals, literal{name: v.Name, data: []byte(p.Text)})
			case KindTokenBytes:
				literals = append(literals, literal{name: v.Name, data: p.Bytes})
			}
		}
	}
	if len(literals) < 2 {
		return
	}
	ab := ahocorasick.NewBuilder()
	for _, l := range literals {
		ab.AddPattern(l.data)
	}
	auto, err := ab.Build()
	if err != nil {
		return
	}
	for _, l := range literals {
		m := auto.Find(l.data, 0)
		if m == nil {
			continue
		}
		if m.End-m.Start < len(l.data) {
			gologger.Debug().Msgf("literal token %s (%q) contains another literal; longest match applies", l.name, l.data)
		}
	}
}
