package automata

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteGraphviz renders the automaton as a dot digraph. Accepting states
// are drawn as double circles, with dashed edges to boxes naming their
// outputs.
func (a *Automaton) WriteGraphviz(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph {\nrankdir=LR;\nstart [shape=none];\nstart -> %d;\n", a.start); err != nil {
		return err
	}
	for i, state := range a.states {
		shape := "circle"
		if _, ok := a.accepts[StateRef(i)]; ok {
			shape = "doublecircle"
		}
		if _, err := fmt.Fprintf(w, "%d [shape=%s];\n", i, shape); err != nil {
			return err
		}
		for _, t := range state.transitions {
			label := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.When.String())
			if _, err := fmt.Fprintf(w, "%d -> %d [label=\"%s\"];\n", i, t.To, label); err != nil {
				return err
			}
		}
	}
	for _, s := range a.sortedAcceptRefs() {
		out := a.accepts[s]
		if out == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%q [shape=box];\n%d -> %q [style=\"dashed\"];\n", out.String(), s, out.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteMermaid renders the automaton as a mermaid flowchart.
func (a *Automaton) WriteMermaid(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "flowchart LR\nstyle start fill:#FFFFFF00, stroke:#FFFFFF00\nstart-->%d;\n", a.start); err != nil {
		return err
	}
	for i, state := range a.states {
		shape := "circ"
		if _, ok := a.accepts[StateRef(i)]; ok {
			shape = "dbl-circ"
		}
		if _, err := fmt.Fprintf(w, "%d@{shape: %s}\n", i, shape); err != nil {
			return err
		}
		for _, t := range state.transitions {
			label := strings.ReplaceAll(t.When.String(), `"`, "#34;")
			if _, err := fmt.Fprintf(w, "%d -- \"%s\" --> %d\n", i, label, t.To); err != nil {
				return err
			}
		}
	}
	for _, s := range a.sortedAcceptRefs() {
		out := a.accepts[s]
		if out == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s_%d[%s]@{shape: rect}\n%d .-> %s_%d\n",
			out.Name, out.Disambiguator, out.String(), s, out.Name, out.Disambiguator); err != nil {
			return err
		}
	}
	return nil
}

func (a *Automaton) sortedAcceptRefs() []StateRef {
	refs := make([]StateRef, 0, len(a.accepts))
	for s := range a.accepts {
		refs = append(refs, s)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}
