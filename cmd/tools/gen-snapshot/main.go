// Command gen-snapshot generates a synthetic homologous ejecta
// snapshot for testing the transport pipeline end to end.
package main

import (
	"flag"
	"log"
	"math"

	"github.com/corvid-astro/sobolev/internal/montecarlo"
	"github.com/corvid-astro/sobolev/internal/snapshotio"
)

func main() {
	output := flag.String("o", "model.json", "output path")
	shells := flag.Int("shells", 20, "number of shells")
	lines := flag.Int("lines", 50, "number of lines")
	rPhot := flag.Float64("r-phot", 1e15, "photospheric radius (cm)")
	rMax := flag.Float64("r-max", 3e15, "outermost radius (cm)")
	tExp := flag.Float64("t-exp", 1e6, "time since explosion (s)")
	nePhot := flag.Float64("ne", 2e9, "photospheric electron density (cm^-3)")
	tauScale := flag.Float64("tau", 1.0, "Sobolev depth of the strongest line")
	flag.Parse()

	if *shells < 1 || *lines < 0 || !(*rMax > *rPhot) {
		log.Fatalf("bad geometry: shells=%d lines=%d r=[%g, %g]", *shells, *lines, *rPhot, *rMax)
	}

	snap := synthesize(*shells, *lines, *rPhot, *rMax, *tExp, *nePhot, *tauScale)
	if err := snap.Validate(); err != nil {
		log.Fatalf("generated snapshot invalid: %v", err)
	}
	if err := snapshotio.Save(*output, snap); err != nil {
		log.Fatalf("write snapshot: %v", err)
	}
	log.Printf("wrote %s: %d shells, %d lines", *output, snap.Shells(), snap.Lines())
}

// synthesize builds a homologous model: shells of equal width, density
// falling as r^-7, and a line forest spread uniformly in log frequency
// with Sobolev depths decaying redward.
func synthesize(shells, lines int, rPhot, rMax, tExp, nePhot, tauScale float64) *montecarlo.Snapshot {
	snap := &montecarlo.Snapshot{
		RInner:                 make([]float64, shells),
		ROuter:                 make([]float64, shells),
		VInner:                 make([]float64, shells),
		ElectronDensity:        make([]float64, shells),
		InverseElectronDensity: make([]float64, shells),
		TimeExplosion:          tExp,
		InverseTimeExplosion:   1 / tExp,
		LineInteraction:        montecarlo.LineInteractionScatter,
	}

	width := (rMax - rPhot) / float64(shells)
	for i := 0; i < shells; i++ {
		snap.RInner[i] = rPhot + float64(i)*width
		snap.ROuter[i] = rPhot + float64(i+1)*width
		snap.VInner[i] = snap.RInner[i] / tExp
		ne := nePhot * math.Pow(snap.RInner[i]/rPhot, -7)
		snap.ElectronDensity[i] = ne
		snap.InverseElectronDensity[i] = 1 / ne
	}

	if lines == 0 {
		return snap
	}
	const nuBlue, nuRed = 2.5e15, 5e14
	snap.LineListNu = make([]float64, lines)
	ratio := math.Pow(nuRed/nuBlue, 1/float64(max(lines-1, 1)))
	for l := 0; l < lines; l++ {
		snap.LineListNu[l] = nuBlue * math.Pow(ratio, float64(l))
	}

	snap.TauSobolev = make([]float64, shells*lines)
	for s := 0; s < shells; s++ {
		depthFactor := math.Pow(snap.RInner[s]/rPhot, -2)
		for l := 0; l < lines; l++ {
			lineFactor := math.Exp(-3 * float64(l) / float64(lines))
			snap.TauSobolev[s*lines+l] = tauScale * depthFactor * lineFactor
		}
	}
	return snap
}
