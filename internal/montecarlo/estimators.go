package montecarlo

// Estimators accumulate the path-length weighted radiation-field
// moments per shell: J (comoving energy times path length) and NuBar
// (the same, weighted by comoving frequency). An outer iteration
// driver normalises these into mean intensity and mean frequency when
// it updates the plasma state.
type Estimators struct {
	J     []float64
	NuBar []float64
}

// NewEstimators returns zeroed accumulators for the given shell count.
func NewEstimators(shells int) *Estimators {
	return &Estimators{
		J:     make([]float64, shells),
		NuBar: make([]float64, shells),
	}
}

// Merge adds other into e shell by shell. Workers accumulate into
// private estimators; the driver merges them in worker order so the
// reduction is deterministic for a fixed worker count.
func (e *Estimators) Merge(other *Estimators) {
	for i := range e.J {
		e.J[i] += other.J[i]
		e.NuBar[i] += other.NuBar[i]
	}
}
