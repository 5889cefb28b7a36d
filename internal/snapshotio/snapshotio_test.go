package snapshotio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/corvid-astro/sobolev/internal/montecarlo"
	"github.com/corvid-astro/sobolev/internal/testutil"
)

func scatterModel() Model {
	return Model{
		TimeExplosion:   1e6,
		RInner:          []float64{1e15, 2e15},
		ROuter:          []float64{2e15, 3e15},
		ElectronDensity: []float64{1e9, 5e8},
		LineListNu:      []float64{2e15, 1e15},
		TauSobolev:      [][]float64{{1, 2}, {0.5, 0.25}},
		LineInteraction: "scatter",
	}
}

func writeModel(t *testing.T, m Model) string {
	t.Helper()
	snap, err := m.Snapshot()
	testutil.AssertNoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	testutil.AssertNoError(t, Save(path, snap))
	return path
}

func TestLoadFlattensAndPrecomputes(t *testing.T) {
	snap, err := Load(writeModel(t, scatterModel()))
	testutil.AssertNoError(t, err)

	if snap.Shells() != 2 || snap.Lines() != 2 {
		t.Fatalf("shells=%d lines=%d, want 2 and 2", snap.Shells(), snap.Lines())
	}
	if got := snap.Tau(1, 1); got != 0.25 {
		t.Errorf("Tau(1, 1) = %g, want 0.25", got)
	}
	if got := snap.InverseElectronDensity[0]; got != 1/1e9 {
		t.Errorf("inverse electron density = %g, want %g", got, 1/1e9)
	}
	if got := snap.InverseTimeExplosion; got != 1e-6 {
		t.Errorf("inverse time_explosion = %g, want 1e-6", got)
	}
	if snap.LineInteraction != montecarlo.LineInteractionScatter {
		t.Errorf("line interaction = %v, want scatter", snap.LineInteraction)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := scatterModel()
	m.LineInteraction = "macroatom"
	m.MacroAtom = &MacroAtom{
		Line2MacroUpper:            []int{0, 0},
		BlockRefs:                  []int{0, 1},
		TransitionProbabilities:    [][]float64{{1}, {1}},
		TransitionType:             []int{-1},
		TransitionDestinationLevel: []int{0},
		TransitionLineID:           []int{1},
	}
	want, err := m.Snapshot()
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, want.Validate())

	path := filepath.Join(t.TempDir(), "model.json")
	testutil.AssertNoError(t, Save(path, want))
	got, err := Load(path)
	testutil.AssertNoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip changed the snapshot (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	testutil.AssertError(t, err)

	badExt := filepath.Join(dir, "model.txt")
	testutil.AssertNoError(t, os.WriteFile(badExt, []byte("{}"), 0644))
	_, err = Load(badExt)
	testutil.AssertError(t, err)

	truncated := filepath.Join(dir, "trunc.json")
	testutil.AssertNoError(t, os.WriteFile(truncated, []byte(`{"r_inner": [`), 0644))
	_, err = Load(truncated)
	testutil.AssertError(t, err)
}

func TestLoadRejectsStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{"ragged tau row", func(m *Model) { m.TauSobolev[0] = m.TauSobolev[0][:1] }},
		{"missing tau rows", func(m *Model) { m.TauSobolev = m.TauSobolev[:1] }},
		{"unknown interaction", func(m *Model) { m.LineInteraction = "fluoresce" }},
		{"increasing line list", func(m *Model) { m.LineListNu = []float64{1e15, 2e15} }},
		{"disjoint shells", func(m *Model) { m.RInner[1] = 2.5e15 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := scatterModel()
			tc.mutate(&m)

			// Flattening catches shape errors; the kernel's Validate
			// catches the physical ones.
			snap, err := m.Snapshot()
			if err != nil {
				return
			}
			testutil.AssertError(t, snap.Validate())
		})
	}
}
