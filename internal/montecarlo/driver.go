package montecarlo

import (
	"fmt"
	"runtime"
	"sync"
)

// Packets holds the initial lab-frame properties of a packet
// population, index aligned. An external source (for example a
// photospheric blackbody sampler) fills these.
type Packets struct {
	Nu     []float64
	Mu     []float64
	Energy []float64
}

// Len returns the packet count.
func (p Packets) Len() int { return len(p.Nu) }

func (p Packets) validate() error {
	if len(p.Mu) != len(p.Nu) || len(p.Energy) != len(p.Nu) {
		return fmt.Errorf("packet arrays disagree: nu=%d mu=%d energy=%d", len(p.Nu), len(p.Mu), len(p.Energy))
	}
	return nil
}

// Options controls a transport run.
type Options struct {
	// Workers is the worker-pool size; zero or negative selects one
	// worker per CPU.
	Workers int

	// Seed is the base RNG seed. Packet i draws from an independent
	// stream seeded Seed+i, so per-packet outputs are identical for any
	// worker count and a population split across two runs reproduces
	// them when the second run's seed is offset by the first run's
	// packet count. Estimator sums agree up to floating-point
	// summation order.
	Seed uint64

	// Strict aborts the run on numeric anomalies instead of logging
	// and continuing.
	Strict bool

	// LegacyLineCursor keeps the line cursor stale across electron
	// scatters instead of re-searching the line list.
	LegacyLineCursor bool
}

// Result is the outcome of a transport run. OutputNu and OutputEnergy
// are index aligned with the input packets; reabsorbed packets carry
// negated values, escaped packets positive ones.
type Result struct {
	OutputNu     []float64
	OutputEnergy []float64
	Estimators   *Estimators
	Escaped      int
	Reabsorbed   int
}

// Run transports every packet through the snapshot and returns the
// emergent population and the accumulated estimators. Packets are
// independent, so they are strided across the worker pool; each worker
// accumulates into private estimator buffers that are merged in worker
// order once the pool drains.
func Run(snap *Snapshot, pkts Packets, opts Options) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if err := pkts.validate(); err != nil {
		return nil, err
	}

	n := pkts.Len()
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	res := &Result{
		OutputNu:     make([]float64, n),
		OutputEnergy: make([]float64, n),
		Estimators:   NewEstimators(snap.Shells()),
	}

	workerEst := make([]*Estimators, workers)
	workerErr := make([]error, workers)
	escaped := make([]int, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			est := NewEstimators(snap.Shells())
			workerEst[w] = est
			eng := &engine{
				snap:             snap,
				est:              est,
				strict:           opts.Strict,
				legacyLineCursor: opts.LegacyLineCursor,
			}
			rng := newStream()
			for i := w; i < n; i += workers {
				rng.reseed(opts.Seed + uint64(i))
				pkt := Packet{
					Nu:     pkts.Nu[i],
					Mu:     pkts.Mu[i],
					Energy: pkts.Energy[i],
					R:      snap.RInner[0],
					Shell:  0,
				}
				if err := eng.transport(&pkt, rng); err != nil {
					workerErr[w] = fmt.Errorf("packet %d: %w", i, err)
					return
				}
				if pkt.Reabsorbed {
					res.OutputNu[i] = -pkt.Nu
					res.OutputEnergy[i] = -pkt.Energy
				} else {
					res.OutputNu[i] = pkt.Nu
					res.OutputEnergy[i] = pkt.Energy
					escaped[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		if workerErr[w] != nil {
			return nil, workerErr[w]
		}
		res.Estimators.Merge(workerEst[w])
		res.Escaped += escaped[w]
	}
	res.Reabsorbed = n - res.Escaped
	diagf("transported %d packets with %d workers: %d escaped, %d reabsorbed",
		n, workers, res.Escaped, res.Reabsorbed)
	return res, nil
}
