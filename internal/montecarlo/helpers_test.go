package montecarlo

// Test model scale: a photosphere at 1e15 cm after 1e6 s puts the
// inner boundary at v/c ~ 1/30, fast enough that packets redshift
// through lines within a shell crossing.
const (
	testTimeExplosion = 1e6
	testRInner        = 1e15
	testShellWidth    = 1e15

	// negligibleElectronDensity keeps the snapshot valid while pushing
	// the electron mean free path far beyond the model.
	negligibleElectronDensity = 1e-20
)

// newTestSnapshot builds a shell model in scatter mode with the given
// line list. tau supplies one Sobolev depth per line, replicated
// across shells; it may be nil when lineNu is empty.
func newTestSnapshot(shells int, lineNu, tau []float64, ne float64) *Snapshot {
	s := &Snapshot{
		RInner:                 make([]float64, shells),
		ROuter:                 make([]float64, shells),
		VInner:                 make([]float64, shells),
		ElectronDensity:        make([]float64, shells),
		InverseElectronDensity: make([]float64, shells),
		LineListNu:             lineNu,
		TauSobolev:             make([]float64, shells*len(lineNu)),
		LineInteraction:        LineInteractionScatter,
		TimeExplosion:          testTimeExplosion,
		InverseTimeExplosion:   1 / testTimeExplosion,
	}
	for i := 0; i < shells; i++ {
		s.RInner[i] = testRInner + float64(i)*testShellWidth
		s.ROuter[i] = testRInner + float64(i+1)*testShellWidth
		s.VInner[i] = s.RInner[i] / testTimeExplosion
		s.ElectronDensity[i] = ne
		s.InverseElectronDensity[i] = 1 / ne
		for j := range lineNu {
			s.TauSobolev[i*len(lineNu)+j] = tau[j]
		}
	}
	return s
}

// withMacroTables installs a macro-atom network on snap. blockRefs has
// one entry per level plus the closing offset; probs holds one
// probability row (replicated across shells).
func withMacroTables(snap *Snapshot, mode LineInteraction, line2upper, blockRefs []int,
	probs []float64, ttype, dest, lineID []int) *Snapshot {
	shells := snap.Shells()
	snap.LineInteraction = mode
	snap.Line2MacroUpper = line2upper
	snap.MacroBlockRefs = blockRefs
	snap.TransitionType = ttype
	snap.TransitionDestinationLevel = dest
	snap.TransitionLineID = lineID
	snap.TransitionProbabilities = make([]float64, shells*len(probs))
	for i := 0; i < shells; i++ {
		copy(snap.TransitionProbabilities[i*len(probs):], probs)
	}
	return snap
}

// uniformPackets builds n identical packets.
func uniformPackets(n int, nu, mu, energy float64) Packets {
	p := Packets{
		Nu:     make([]float64, n),
		Mu:     make([]float64, n),
		Energy: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p.Nu[i] = nu
		p.Mu[i] = mu
		p.Energy[i] = energy
	}
	return p
}
