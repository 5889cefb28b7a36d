package montecarlo

import (
	"fmt"
	"math"
)

type eventKind int

const (
	eventOuter eventKind = iota
	eventInner
	eventElectron
	eventLine
)

// engine carries the per-worker transport context: the shared
// snapshot, the worker's private estimator buffers, and the run modes.
type engine struct {
	snap *Snapshot
	est  *Estimators

	// strict turns numeric anomalies from logged warnings into run
	// failures.
	strict bool

	// legacyLineCursor skips the line-list re-search after an electron
	// scatter, matching implementations that let a stale cursor drift
	// back into range through subsequent geometry.
	legacyLineCursor bool
}

// anomaly reports a numeric irregularity with the full packet state.
// In strict mode it is returned as an error; otherwise transport
// continues with the caller's fallback.
func (e *engine) anomaly(p *Packet, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	opsf("%s (nu=%g mu=%g energy=%g r=%g shell=%d line=%d tau_event=%g)",
		msg, p.Nu, p.Mu, p.Energy, p.R, p.Shell, p.nextLine, p.tauEvent)
	if e.strict {
		return fmt.Errorf("%s: nu=%g mu=%g r=%g shell=%d line=%d", msg, p.Nu, p.Mu, p.R, p.Shell, p.nextLine)
	}
	return nil
}

// transport runs one packet from its starting position until it
// escapes through the outermost shell or is reabsorbed through the
// inner boundary. On return p.Reabsorbed distinguishes the two exits.
//
// Each iteration computes the distances to the four candidate events
// (outer boundary, inner boundary, electron scatter, line crossing)
// and dispatches on the minimum. Progress is guaranteed: every
// iteration either moves the packet a positive distance or strictly
// advances the line cursor, and once the cursor runs off the red end
// only boundary and electron events remain.
func (e *engine) transport(p *Packet, rng *stream) error {
	snap := e.snap
	nLines := snap.Lines()
	invT := snap.InverseTimeExplosion

	// The boundary flag starts clear: an outward-pointing packet at the
	// photosphere cannot hit the inner sphere anyway (mu >= 0 misses),
	// and an inward-pointing one is reabsorbed at zero distance, which
	// is the physically correct outcome.
	p.crossedBoundary = 0
	p.closeLine = false
	p.tauEvent = rng.nextTau()
	doppler := dopplerFactor(p.R, p.Mu, invT)
	p.nextLine = searchRedwardLine(snap.LineListNu, p.Nu*doppler)
	p.lastLine = p.nextLine == nLines

	for {
		if math.IsNaN(p.Nu) || math.IsNaN(p.Mu) || math.IsNaN(p.R) {
			if err := e.anomaly(p, "NaN in packet state"); err != nil {
				return err
			}
		}
		shell := p.Shell

		dOuter := distanceToOuter(p.R, p.Mu, snap.ROuter[shell])
		dInner := Miss
		if p.crossedBoundary != +1 {
			dInner = distanceToInner(p.R, p.Mu, snap.RInner[shell])
		}
		dElectron := p.tauEvent * snap.InverseElectronDensity[shell] / SigmaThomson

		// nuLine tracks the rest frequency relevant for the close-line
		// check: the line being approached, or after an interaction
		// the line just emitted.
		dLine := Miss
		var nuLine float64
		if p.closeLine {
			// The packet sits exactly on the previous line's resonance
			// surface and the adjacent line must be processed without
			// advancing geometry.
			p.closeLine = false
			dLine = 0
			nuLine = snap.LineListNu[p.nextLine]
		} else if !p.lastLine {
			nuLine = snap.LineListNu[p.nextLine]
			doppler = dopplerFactor(p.R, p.Mu, invT)
			dLine = (p.Nu*doppler - nuLine) / p.Nu * SpeedOfLight * snap.TimeExplosion
			if dLine < 0 {
				if err := e.anomaly(p, "negative distance %g to line %d (nu_line=%g, nu_comov=%g)",
					dLine, p.nextLine, nuLine, p.Nu*doppler); err != nil {
					return err
				}
				dLine = 0
			}
		}

		ev, d := eventOuter, dOuter
		if dInner < d {
			ev, d = eventInner, dInner
		}
		if dElectron < d {
			ev, d = eventElectron, dElectron
		}
		// Line events take zero-distance ties so a close-line pair is
		// processed before anything else fires.
		if dLine <= d {
			ev, d = eventLine, dLine
		}

		switch ev {
		case eventOuter:
			p.move(snap, e.est, dOuter)
			if shell < snap.Shells()-1 {
				p.Shell++
				p.crossedBoundary = +1
				continue
			}
			p.Reabsorbed = false
			return nil

		case eventInner:
			p.move(snap, e.est, dInner)
			if shell > 0 {
				p.Shell--
				p.crossedBoundary = -1
				continue
			}
			p.Reabsorbed = true
			return nil

		case eventElectron:
			oldDoppler := p.move(snap, e.est, dElectron)
			nuComov := p.Nu * oldDoppler
			comovEnergy := p.Energy * oldDoppler
			p.Mu = 2*rng.Float64() - 1
			inverseDoppler := 1 / dopplerFactor(p.R, p.Mu, invT)
			p.Nu = nuComov * inverseDoppler
			p.Energy = comovEnergy * inverseDoppler
			p.tauEvent = rng.nextTau()
			p.crossedBoundary = 0
			if !e.legacyLineCursor {
				// The lab-frame frequency jumped discontinuously, so
				// the cursor is re-anchored on the new comoving
				// frequency.
				doppler = dopplerFactor(p.R, p.Mu, invT)
				p.nextLine = searchRedwardLine(snap.LineListNu, p.Nu*doppler)
				p.lastLine = p.nextLine == nLines
				p.closeLine = false
			}
			tracef("electron scatter: r=%g shell=%d nu=%g mu=%g", p.R, shell, p.Nu, p.Mu)

		case eventLine:
			line := p.nextLine
			tauLine := snap.Tau(shell, line)
			tauElectron := SigmaThomson * snap.ElectronDensity[shell] * dLine
			tauCombined := tauLine + tauElectron

			p.nextLine++
			if p.nextLine >= nLines {
				p.nextLine = nLines
				p.lastLine = true
			}

			if p.tauEvent < tauCombined {
				oldDoppler := p.move(snap, e.est, dLine)
				comovEnergy := p.Energy * oldDoppler
				p.Mu = 2*rng.Float64() - 1
				inverseDoppler := 1 / dopplerFactor(p.R, p.Mu, invT)

				emission := line
				if snap.LineInteraction != LineInteractionScatter {
					emission = emitViaMacroAtom(snap, rng, snap.Line2MacroUpper[line], shell)
				}
				nuLine = snap.LineListNu[emission]
				p.Nu = nuLine * inverseDoppler
				p.Energy = comovEnergy * inverseDoppler
				p.nextLine = emission + 1
				p.lastLine = p.nextLine >= nLines
				p.tauEvent = rng.nextTau()
				p.crossedBoundary = 0
				tracef("line interaction: absorbed=%d emitted=%d shell=%d nu=%g", line, emission, shell, p.Nu)
			} else {
				// The packet drifts through the resonance surface.
				// Electron opacity over the stretch to the next line
				// is charged through dElectron on the next iteration,
				// so only the line's own depth is spent here.
				p.tauEvent -= tauLine
			}

			if !p.lastLine && math.Abs(snap.LineListNu[p.nextLine]-nuLine)/nuLine < closeLineThreshold {
				p.closeLine = true
			}
		}
	}
}
