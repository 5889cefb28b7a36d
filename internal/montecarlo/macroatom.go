package montecarlo

// emitViaMacroAtom walks the macro-atom transition network from the
// activated upper level until an emission transition is sampled, and
// returns the emitted line index.
//
// Each level owns a block of transition slots whose probabilities sum
// to one per shell, so the cumulative scan always terminates inside
// the block; the atomic model guarantees every internal-jump chain
// eventually reaches an emission slot. In downbranch mode the tables
// contain no internal jumps, so the first sampled slot already emits.
func emitViaMacroAtom(snap *Snapshot, rng *stream, upperLevel, shell int) int {
	level := upperLevel
	for {
		u := rng.Float64()
		i := snap.MacroBlockRefs[level]
		end := snap.MacroBlockRefs[level+1]
		p := 0.0
		for {
			p += snap.transitionProbability(shell, i)
			if p > u || i == end-1 {
				// The i == end-1 clamp absorbs float drift when the
				// block sum lands a hair under one and u fell in the
				// gap.
				break
			}
			i++
		}
		if snap.TransitionType[i] == transitionEmission {
			return snap.TransitionLineID[i]
		}
		level = snap.TransitionDestinationLevel[i]
	}
}
