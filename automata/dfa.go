package automata

import (
	"sort"

	"github.com/0x2a-42/herring/internal/sparse"
)

// Determinize runs the classical subset construction over the byte
// alphabet. Accepting outputs of merged NFA states are combined under the
// conflict policy; two tokens of equal priority reachable through the same
// word surface here as a ConflictError.
func (n *NFA) Determinize() (*DFA, error) {
	dfa := NewDFA()

	scratch := sparse.NewSet(n.Len())
	scratch.Insert(uint32(n.start))
	n.epsilonClosure(scratch)
	startSet := canonicalSet(scratch)

	dstates := map[string]StateRef{setKey(startSet): dfa.Start()}
	todo := [][]StateRef{startSet}
	for len(todo) > 0 {
		set := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		dfaState := dstates[setKey(set)]
		for _, s := range set {
			if out, ok := n.accepts[s]; ok {
				if err := dfa.SetAcceptOutput(dfaState, out); err != nil {
					return nil, err
				}
			}
		}
		for b := 0; b <= 0xFF; b++ {
			moved := n.moveSet(set, byte(b), scratch)
			if len(moved) == 0 {
				continue
			}
			key := setKey(moved)
			next, ok := dstates[key]
			if !ok {
				next = dfa.Add()
				dstates[key] = next
				todo = append(todo, moved)
			}
			dfa.AddTransition(dfaState, PatternFromByte(byte(b)), next)
		}
	}
	return dfa, nil
}

// moveSet computes the epsilon closure of the states reachable from set on
// byte b. The scratch set is reused across calls.
func (n *NFA) moveSet(set []StateRef, b byte, scratch *sparse.Set) []StateRef {
	scratch.Clear()
	for _, s := range set {
		for _, t := range n.states[s].transitions {
			if t.When.Contains(b) {
				scratch.Insert(uint32(t.To))
			}
		}
	}
	if scratch.Len() == 0 {
		return nil
	}
	n.epsilonClosure(scratch)
	return canonicalSet(scratch)
}

// canonicalSet copies the scratch set into a sorted StateRef slice, the
// canonical representation used for deduplication keys.
func canonicalSet(set *sparse.Set) []StateRef {
	refs := make([]StateRef, set.Len())
	for i, v := range set.Values() {
		refs[i] = StateRef(v)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// setKey packs a sorted StateRef slice into a string usable as a map key.
func setKey(set []StateRef) string {
	buf := make([]byte, 0, 4*len(set))
	for _, s := range set {
		buf = append(buf, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
	}
	return string(buf)
}
