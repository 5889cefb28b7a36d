package montecarlo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Scenario: a single transparent shell. Every packet flies straight
// out with its lab-frame frequency and energy untouched.
func TestTransparentShellEscapesUnchanged(t *testing.T) {
	snap := newTestSnapshot(1, nil, nil, negligibleElectronDensity)

	const n = 50
	pkts := uniformPackets(n, 3e15, 1, 0.25)
	res, err := Run(snap, pkts, Options{Workers: 4, Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	if res.Escaped != n || res.Reabsorbed != 0 {
		t.Fatalf("escaped=%d reabsorbed=%d, want all %d escaped", res.Escaped, res.Reabsorbed, n)
	}
	for i := 0; i < n; i++ {
		if res.OutputNu[i] != 3e15 || res.OutputEnergy[i] != 0.25 {
			t.Fatalf("packet %d: output (%g, %g), want inputs unchanged", i, res.OutputNu[i], res.OutputEnergy[i])
		}
	}
}

func TestEscapeReabsorbDichotomy(t *testing.T) {
	snap := newTestSnapshot(2, []float64{2e15}, []float64{3}, 1.5e9)

	const n = 400
	res, err := Run(snap, uniformPackets(n, testPacketNu, 1, 1), Options{Workers: 4, Seed: 21})
	if err != nil {
		t.Fatal(err)
	}
	if res.Escaped+res.Reabsorbed != n {
		t.Fatalf("escaped %d + reabsorbed %d != %d", res.Escaped, res.Reabsorbed, n)
	}
	for i := 0; i < n; i++ {
		nu, en := res.OutputNu[i], res.OutputEnergy[i]
		if nu == 0 || en == 0 {
			t.Fatalf("packet %d: zero output (%g, %g)", i, nu, en)
		}
		if (nu > 0) != (en > 0) {
			t.Fatalf("packet %d: sign mismatch between nu %g and energy %g", i, nu, en)
		}
	}
}

// Results must not depend on how packets are partitioned across the
// worker pool: each packet owns its seed.
func TestRunIndependentOfWorkerCount(t *testing.T) {
	snap := newTestSnapshot(2, []float64{2e15, 1.6e15}, []float64{2, 1}, 1.5e9)
	pkts := uniformPackets(128, testPacketNu, 1, 1)

	serial, err := Run(snap, pkts, Options{Workers: 1, Seed: 33})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := Run(snap, pkts, Options{Workers: 7, Seed: 33})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(serial.OutputNu, parallel.OutputNu); diff != "" {
		t.Errorf("output frequencies differ by worker count (-serial +parallel):\n%s", diff)
	}
	if diff := cmp.Diff(serial.OutputEnergy, parallel.OutputEnergy); diff != "" {
		t.Errorf("output energies differ by worker count (-serial +parallel):\n%s", diff)
	}
	approx := cmpopts.EquateApprox(1e-12, 0)
	if diff := cmp.Diff(serial.Estimators.J, parallel.Estimators.J, approx); diff != "" {
		t.Errorf("J estimators differ by worker count:\n%s", diff)
	}
	if diff := cmp.Diff(serial.Estimators.NuBar, parallel.Estimators.NuBar, approx); diff != "" {
		t.Errorf("nu-bar estimators differ by worker count:\n%s", diff)
	}
}

// Running a population in one batch or as two halves (second half's
// seed offset by the first half's count) must accumulate the same
// estimators.
func TestEstimatorAdditivityAcrossBatches(t *testing.T) {
	snap := newTestSnapshot(2, []float64{2e15}, []float64{2}, 1.5e9)
	const n = 64
	pkts := uniformPackets(n, testPacketNu, 1, 1)

	full, err := Run(snap, pkts, Options{Workers: 1, Seed: 100})
	if err != nil {
		t.Fatal(err)
	}

	firstHalf := Packets{Nu: pkts.Nu[:n/2], Mu: pkts.Mu[:n/2], Energy: pkts.Energy[:n/2]}
	secondHalf := Packets{Nu: pkts.Nu[n/2:], Mu: pkts.Mu[n/2:], Energy: pkts.Energy[n/2:]}
	a, err := Run(snap, firstHalf, Options{Workers: 1, Seed: 100})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(snap, secondHalf, Options{Workers: 1, Seed: 100 + n/2})
	if err != nil {
		t.Fatal(err)
	}

	for s := 0; s < snap.Shells(); s++ {
		sumJ := a.Estimators.J[s] + b.Estimators.J[s]
		if rel := math.Abs(sumJ-full.Estimators.J[s]) / full.Estimators.J[s]; rel > 1e-12 {
			t.Errorf("shell %d: split J = %g, full J = %g (rel err %g)", s, sumJ, full.Estimators.J[s], rel)
		}
		sumNuBar := a.Estimators.NuBar[s] + b.Estimators.NuBar[s]
		if rel := math.Abs(sumNuBar-full.Estimators.NuBar[s]) / full.Estimators.NuBar[s]; rel > 1e-12 {
			t.Errorf("shell %d: split nu-bar = %g, full = %g (rel err %g)", s, sumNuBar, full.Estimators.NuBar[s], rel)
		}
	}
	for i := 0; i < n/2; i++ {
		if a.OutputNu[i] != full.OutputNu[i] || b.OutputNu[i] != full.OutputNu[n/2+i] {
			t.Fatalf("packet outputs not reproduced across the split at index %d", i)
		}
	}
}

// Radial packets through a transparent shell deposit exactly one
// path-length contribution each, evaluated at the photosphere.
func TestEstimatorRadialAnalytic(t *testing.T) {
	snap := newTestSnapshot(1, nil, nil, negligibleElectronDensity)
	const n = 10
	const energy = 0.5
	const nu = 3e15

	res, err := Run(snap, uniformPackets(n, nu, 1, energy), Options{Workers: 1, Seed: 2})
	if err != nil {
		t.Fatal(err)
	}

	doppler := dopplerFactor(snap.RInner[0], 1, snap.InverseTimeExplosion)
	chord := snap.ROuter[0] - snap.RInner[0]
	wantJ := n * energy * doppler * chord
	wantNuBar := wantJ * nu * doppler
	if rel := math.Abs(res.Estimators.J[0]-wantJ) / wantJ; rel > 1e-12 {
		t.Errorf("J = %g, want %g (rel err %g)", res.Estimators.J[0], wantJ, rel)
	}
	if rel := math.Abs(res.Estimators.NuBar[0]-wantNuBar) / wantNuBar; rel > 1e-12 {
		t.Errorf("NuBar = %g, want %g (rel err %g)", res.Estimators.NuBar[0], wantNuBar, rel)
	}
}

// Packets launched isotropically over the outward hemisphere sample
// chord lengths through the shell; the mean path length must match the
// direct quadrature of the same integrand within Monte Carlo noise.
func TestEstimatorIsotropicConsistency(t *testing.T) {
	snap := newTestSnapshot(1, nil, nil, negligibleElectronDensity)
	const n = 20000
	const energy = 1.0
	const nu = 3e15

	src := rand.New(rand.NewPCG(1234, 5678))
	pkts := Packets{
		Nu:     make([]float64, n),
		Mu:     make([]float64, n),
		Energy: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		pkts.Nu[i] = nu
		pkts.Mu[i] = src.Float64() // uniform over the outward hemisphere
		pkts.Energy[i] = energy
	}

	res, err := Run(snap, pkts, Options{Workers: 4, Seed: 55})
	if err != nil {
		t.Fatal(err)
	}

	// Quadrature of D(mu) * dOuter(mu) over mu in (0, 1].
	rIn, rOut := snap.RInner[0], snap.ROuter[0]
	const steps = 200000
	want := 0.0
	for k := 0; k < steps; k++ {
		mu := (float64(k) + 0.5) / steps
		want += dopplerFactor(rIn, mu, snap.InverseTimeExplosion) * distanceToOuter(rIn, mu, rOut)
	}
	want /= steps

	got := res.Estimators.J[0] / (n * energy)
	if rel := math.Abs(got-want) / want; rel > 0.01 {
		t.Errorf("mean weighted path = %g, quadrature = %g (rel err %g)", got, want, rel)
	}
}
