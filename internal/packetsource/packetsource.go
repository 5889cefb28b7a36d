// Package packetsource initializes Monte Carlo packet populations at
// the photosphere. Frequencies are drawn from a blackbody at the
// photospheric temperature using the Carter-Cashwell series method,
// which samples the Planck energy distribution without rejection.
package packetsource

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/corvid-astro/sobolev/internal/montecarlo"
)

const (
	kBoltzmann = 1.380649e-16  // erg / K
	hPlanck    = 6.62607015e-27 // erg s

	// zeta4 is the Riemann zeta function at 4, the normalization of
	// the series expansion of the Planck integral.
	zeta4 = math.Pi * math.Pi * math.Pi * math.Pi / 90
)

// seedMix decorrelates the two PCG seed words.
const seedMix = 0x9e3779b97f4a7c15

// Blackbody emits packets from an inner photosphere radiating as a
// blackbody. Directions are drawn from the outward hemisphere with the
// cosine law, and the unit of simulation energy is split evenly over
// the population.
type Blackbody struct {
	// Temperature is the photospheric temperature in K.
	Temperature float64
	// Seed fixes the draw sequence; the same seed yields the same
	// population.
	Seed uint64
}

// Packets draws n packets. The total lab-frame energy of the
// population is one.
func (b Blackbody) Packets(n int) (montecarlo.Packets, error) {
	if n <= 0 {
		return montecarlo.Packets{}, fmt.Errorf("packet count %d must be positive", n)
	}
	if !(b.Temperature > 0) {
		return montecarlo.Packets{}, fmt.Errorf("photospheric temperature %g K must be positive", b.Temperature)
	}

	src := rand.New(rand.NewPCG(b.Seed, b.Seed^seedMix))
	pkts := montecarlo.Packets{
		Nu:     make([]float64, n),
		Mu:     make([]float64, n),
		Energy: make([]float64, n),
	}
	energy := 1 / float64(n)
	for i := 0; i < n; i++ {
		pkts.Nu[i] = sampleNu(src, b.Temperature)
		pkts.Mu[i] = math.Sqrt(src.Float64())
		pkts.Energy[i] = energy
	}
	return pkts, nil
}

// sampleNu draws a frequency from the Planck energy distribution at
// temperature T. A series index l is chosen with probability
// l^-4 / zeta(4), then x = -ln(U1 U2 U3 U4) / l is distributed as
// x^3 e^{-lx} summed over l, which is the Planck law in the
// dimensionless variable x = h nu / k T.
func sampleNu(src *rand.Rand, temperature float64) float64 {
	target := src.Float64() * zeta4
	l := 1
	cum := 1.0
	for cum < target {
		l++
		lf := float64(l)
		cum += 1 / (lf * lf * lf * lf)
	}
	x := -math.Log(src.Float64()*src.Float64()*src.Float64()*src.Float64()) / float64(l)
	return x * kBoltzmann * temperature / hPlanck
}
