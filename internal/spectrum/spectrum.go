// Package spectrum bins escaped packets into an emergent spectrum and
// renders it as a PNG or an interactive HTML chart.
package spectrum

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a binned emergent spectrum. Flux is the escaped lab-frame
// energy per unit frequency in each bin, so the integral over the
// covered range recovers the escaped energy inside it.
type Spectrum struct {
	// NuEdges holds the bin boundaries in Hz, ascending, length bins+1.
	NuEdges []float64
	// Flux holds energy per Hz per bin, length bins.
	Flux []float64
	// EscapedEnergy is the total energy of escaped packets, including
	// any that fell outside the binned range.
	EscapedEnergy float64
	// Escaped and Reabsorbed count packet outcomes.
	Escaped    int
	Reabsorbed int
}

// Build bins transport output into a spectrum. Packets with negative
// entries were reabsorbed by the core and contribute nothing to the
// flux; they are only counted.
func Build(outputNu, outputEnergy []float64, nuMin, nuMax float64, bins int) (*Spectrum, error) {
	if len(outputNu) != len(outputEnergy) {
		return nil, fmt.Errorf("output lengths disagree: %d frequencies, %d energies", len(outputNu), len(outputEnergy))
	}
	if bins <= 0 {
		return nil, fmt.Errorf("bin count %d must be positive", bins)
	}
	if !(nuMin > 0) || !(nuMax > nuMin) {
		return nil, fmt.Errorf("bad frequency range [%g, %g]", nuMin, nuMax)
	}

	var nus, weights []float64
	sp := &Spectrum{NuEdges: floats.Span(make([]float64, bins+1), nuMin, nuMax)}
	for i, nu := range outputNu {
		if nu <= 0 {
			sp.Reabsorbed++
			continue
		}
		sp.Escaped++
		sp.EscapedEnergy += outputEnergy[i]
		if nu < nuMin || nu >= nuMax {
			continue
		}
		nus = append(nus, nu)
		weights = append(weights, outputEnergy[i])
	}

	sort.Sort(byNu{nus, weights})
	counts := stat.Histogram(nil, sp.NuEdges, nus, weights)
	sp.Flux = counts
	for i := range sp.Flux {
		sp.Flux[i] /= sp.NuEdges[i+1] - sp.NuEdges[i]
	}
	return sp, nil
}

// Bins returns the number of bins.
func (s *Spectrum) Bins() int { return len(s.Flux) }

// Centers returns the midpoint frequency of each bin.
func (s *Spectrum) Centers() []float64 {
	out := make([]float64, s.Bins())
	for i := range out {
		out[i] = 0.5 * (s.NuEdges[i] + s.NuEdges[i+1])
	}
	return out
}

// BinnedEnergy integrates the flux over the binned range.
func (s *Spectrum) BinnedEnergy() float64 {
	total := 0.0
	for i, f := range s.Flux {
		total += f * (s.NuEdges[i+1] - s.NuEdges[i])
	}
	return total
}

type byNu struct {
	nu []float64
	w  []float64
}

func (b byNu) Len() int           { return len(b.nu) }
func (b byNu) Less(i, j int) bool { return b.nu[i] < b.nu[j] }
func (b byNu) Swap(i, j int) {
	b.nu[i], b.nu[j] = b.nu[j], b.nu[i]
	b.w[i], b.w[j] = b.w[j], b.w[i]
}
