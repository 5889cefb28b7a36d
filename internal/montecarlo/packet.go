package montecarlo

import "math"

// Packet is an indivisible energy quantum. Frequency, energy, and
// direction are lab frame; Doppler factors convert to the comoving
// frame at the packet's current position.
type Packet struct {
	Nu     float64 // lab-frame frequency (Hz)
	Mu     float64 // direction cosine, in [-1, +1]
	Energy float64
	R      float64 // radius (cm)
	Shell  int

	// Reabsorbed is set when the packet exits through the inner
	// boundary instead of escaping through the outermost shell.
	Reabsorbed bool

	// nextLine is the cursor into the line list: the next unchecked
	// line with rest frequency at or below the packet's comoving
	// frequency. lastLine is set once the cursor has run off the red
	// end of the list.
	nextLine int
	lastLine bool

	// closeLine marks that the next line is within closeLineThreshold
	// of the one just processed and must be handled at zero distance.
	closeLine bool

	// crossedBoundary is +1 after an outward shell crossing, -1 after
	// an inward one, and 0 after any scatter. A packet that just
	// crossed outward cannot re-cross that boundary without an
	// intervening interaction, so the inner-boundary distance is
	// suppressed while the flag is +1.
	crossedBoundary int

	// tauEvent is the remaining optical-depth budget until the next
	// physical interaction; always positive between events.
	tauEvent float64
}

// dopplerFactor is the lab-to-comoving frequency and energy ratio
// 1 - mu*r/(c*t_exp), first order in v/c for a homologous flow.
func dopplerFactor(r, mu, inverseTimeExplosion float64) float64 {
	return 1 - mu*r*inverseTimeExplosion/SpeedOfLight
}

// move advances the packet a distance d along its current direction,
// accumulating the J and nu-bar estimators for the shell it traverses,
// and returns the Doppler factor at the starting position. A zero
// distance returns the Doppler factor without mutating anything.
func (p *Packet) move(snap *Snapshot, est *Estimators, d float64) float64 {
	doppler := dopplerFactor(p.R, p.Mu, snap.InverseTimeExplosion)
	if d == 0 {
		return doppler
	}
	comovEnergy := p.Energy * doppler
	est.J[p.Shell] += comovEnergy * d
	est.NuBar[p.Shell] += comovEnergy * d * p.Nu * doppler

	rNew := math.Sqrt(p.R*p.R + d*d + 2*p.R*d*p.Mu)
	p.Mu = (p.Mu*p.R + d) / rNew
	p.R = rNew
	return doppler
}
