package automata

import "sort"

// Minimize runs Hopcroft's partition refinement and returns an equivalent
// DFA with the minimum number of states for its output labelling. Initial
// partitions separate states by accept output (states accepting with no
// output count as non-accepting); refinement never merges states whose
// outputs differ, so every accepted word keeps its token identity.
func (d *DFA) Minimize() *DFA {
	byOutput := make(map[Output][]StateRef)
	var nonAccept []StateRef
	for i := range d.states {
		s := StateRef(i)
		if out, ok := d.accepts[s]; ok && out != nil {
			byOutput[*out] = append(byOutput[*out], s)
		} else {
			nonAccept = append(nonAccept, s)
		}
	}

	partitions := make(map[string][]StateRef)
	worklist := make(map[string][]StateRef)
	addPartition := func(set []StateRef) {
		sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
		key := setKey(set)
		partitions[key] = set
		worklist[key] = set
	}
	for _, set := range byOutput {
		addPartition(set)
	}
	if len(nonAccept) > 0 {
		addPartition(nonAccept)
	}

	inSplitter := make([]bool, len(d.states))
	for len(worklist) > 0 {
		var splitter []StateRef
		for key, set := range worklist {
			splitter = set
			delete(worklist, key)
			break
		}
		for i := range inSplitter {
			inSplitter[i] = false
		}
		for _, s := range splitter {
			inSplitter[s] = true
		}
		for b := 0; b <= 0xFF; b++ {
			x := d.predecessorsOn(byte(b), inSplitter)
			if len(x) == 0 {
				continue
			}
			type replacement struct {
				key       string
				cut, diff []StateRef
			}
			var replacements []replacement
			for key, y := range partitions {
				var cut, diff []StateRef
				for _, s := range y {
					if x[s] {
						cut = append(cut, s)
					} else {
						diff = append(diff, s)
					}
				}
				if len(cut) == 0 || len(diff) == 0 {
					continue
				}
				if _, queued := worklist[key]; queued {
					delete(worklist, key)
					worklist[setKey(cut)] = cut
					worklist[setKey(diff)] = diff
				} else if len(cut) < len(diff) {
					worklist[setKey(cut)] = cut
				} else {
					worklist[setKey(diff)] = diff
				}
				replacements = append(replacements, replacement{key: key, cut: cut, diff: diff})
			}
			for _, r := range replacements {
				delete(partitions, r.key)
				partitions[setKey(r.cut)] = r.cut
				partitions[setKey(r.diff)] = r.diff
			}
		}
	}

	return d.fromPartitions(partitions)
}

// predecessorsOn collects the states with a transition on b into the
// splitter set.
func (d *DFA) predecessorsOn(b byte, inSplitter []bool) map[StateRef]bool {
	var x map[StateRef]bool
	for i := range d.states {
		for _, t := range d.states[i].transitions {
			if inSplitter[t.To] && t.When.Contains(b) {
				if x == nil {
					x = make(map[StateRef]bool)
				}
				x[StateRef(i)] = true
				break
			}
		}
	}
	return x
}

// fromPartitions rebuilds a DFA with one state per final partition. The
// partition holding the original start becomes the new start; transitions
// of every representative are replicated and retargeted through the
// partition map, coalescing into range patterns.
func (d *DFA) fromPartitions(partitions map[string][]StateRef) *DFA {
	ordered := make([][]StateRef, 0, len(partitions))
	for _, set := range partitions {
		ordered = append(ordered, set)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i][0] < ordered[j][0] })

	result := NewDFA()
	partOf := make([]StateRef, len(d.states))
	newStates := make([]StateRef, len(ordered))
	for i, set := range ordered {
		var state StateRef
		if containsRef(set, d.start) {
			state = result.start
		} else {
			state = result.Add()
		}
		newStates[i] = state
		for _, s := range set {
			partOf[s] = state
		}
	}
	for i, set := range ordered {
		state := newStates[i]
		for _, s := range set {
			if out, ok := d.accepts[s]; ok {
				// Outputs agree across the partition by construction.
				_ = result.SetAcceptOutput(state, out)
			}
			for _, t := range d.states[s].transitions {
				result.AddTransition(state, t.When, partOf[t.To])
			}
		}
	}
	return result
}

func containsRef(set []StateRef, s StateRef) bool {
	for _, m := range set {
		if m == s {
			return true
		}
	}
	return false
}
