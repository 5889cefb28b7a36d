// Package snapshotio reads and writes plasma snapshot files. The disk
// format is JSON with per-shell nested rows; loading flattens the rows
// into the contiguous tables the transport kernel consumes and
// precomputes the reciprocals it needs.
package snapshotio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corvid-astro/sobolev/internal/montecarlo"
)

// Model is the on-disk snapshot schema.
type Model struct {
	TimeExplosion   float64     `json:"time_explosion"`
	RInner          []float64   `json:"r_inner"`
	ROuter          []float64   `json:"r_outer"`
	VInner          []float64   `json:"v_inner,omitempty"`
	ElectronDensity []float64   `json:"electron_density"`
	LineListNu      []float64   `json:"line_list_nu"`
	TauSobolev      [][]float64 `json:"tau_sobolev"`
	LineInteraction string      `json:"line_interaction"`
	MacroAtom       *MacroAtom  `json:"macro_atom,omitempty"`
}

// MacroAtom holds the transition network tables for downbranch and
// macro-atom runs.
type MacroAtom struct {
	Line2MacroUpper            []int       `json:"line2macro_upper"`
	BlockRefs                  []int       `json:"block_refs"`
	TransitionProbabilities    [][]float64 `json:"transition_probabilities"`
	TransitionType             []int       `json:"transition_type"`
	TransitionDestinationLevel []int       `json:"transition_destination_level"`
	TransitionLineID           []int       `json:"transition_line_id"`
}

const maxFileSize = 64 * 1024 * 1024

// Load reads a snapshot file, flattens it, and validates the result.
func Load(path string) (*montecarlo.Snapshot, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("snapshot file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("snapshot file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	snap, err := model.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return snap, nil
}

// Snapshot flattens the model into kernel form.
func (m *Model) Snapshot() (*montecarlo.Snapshot, error) {
	li, err := parseLineInteraction(m.LineInteraction)
	if err != nil {
		return nil, err
	}

	snap := &montecarlo.Snapshot{
		RInner:               m.RInner,
		ROuter:               m.ROuter,
		VInner:               m.VInner,
		ElectronDensity:      m.ElectronDensity,
		LineListNu:           m.LineListNu,
		LineInteraction:      li,
		TimeExplosion:        m.TimeExplosion,
		InverseTimeExplosion: 1 / m.TimeExplosion,
	}

	snap.InverseElectronDensity = make([]float64, len(m.ElectronDensity))
	for i, ne := range m.ElectronDensity {
		snap.InverseElectronDensity[i] = 1 / ne
	}

	snap.TauSobolev, err = flattenRows(m.TauSobolev, len(m.RInner), len(m.LineListNu), "tau_sobolev")
	if err != nil {
		return nil, err
	}

	if m.MacroAtom != nil {
		ma := m.MacroAtom
		snap.Line2MacroUpper = ma.Line2MacroUpper
		snap.MacroBlockRefs = ma.BlockRefs
		snap.TransitionType = ma.TransitionType
		snap.TransitionDestinationLevel = ma.TransitionDestinationLevel
		snap.TransitionLineID = ma.TransitionLineID
		snap.TransitionProbabilities, err = flattenRows(
			ma.TransitionProbabilities, len(m.RInner), len(ma.TransitionType), "transition_probabilities")
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Save writes a snapshot back to disk in the nested JSON form.
func Save(path string, snap *montecarlo.Snapshot) error {
	model := Model{
		TimeExplosion:   snap.TimeExplosion,
		RInner:          snap.RInner,
		ROuter:          snap.ROuter,
		VInner:          snap.VInner,
		ElectronDensity: snap.ElectronDensity,
		LineListNu:      snap.LineListNu,
		TauSobolev:      nestRows(snap.TauSobolev, snap.Shells(), snap.Lines()),
		LineInteraction: snap.LineInteraction.String(),
	}
	if snap.MacroLevels() > 0 {
		model.MacroAtom = &MacroAtom{
			Line2MacroUpper:            snap.Line2MacroUpper,
			BlockRefs:                  snap.MacroBlockRefs,
			TransitionProbabilities:    nestRows(snap.TransitionProbabilities, snap.Shells(), snap.Transitions()),
			TransitionType:             snap.TransitionType,
			TransitionDestinationLevel: snap.TransitionDestinationLevel,
			TransitionLineID:           snap.TransitionLineID,
		}
	}

	data, err := json.MarshalIndent(&model, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

func parseLineInteraction(s string) (montecarlo.LineInteraction, error) {
	switch s {
	case "", "scatter":
		return montecarlo.LineInteractionScatter, nil
	case "downbranch":
		return montecarlo.LineInteractionDownbranch, nil
	case "macroatom":
		return montecarlo.LineInteractionMacroAtom, nil
	default:
		return 0, fmt.Errorf("unknown line_interaction %q", s)
	}
}

func flattenRows(rows [][]float64, wantRows, wantCols int, name string) ([]float64, error) {
	if len(rows) != wantRows {
		return nil, fmt.Errorf("%s has %d rows, want one per shell (%d)", name, len(rows), wantRows)
	}
	out := make([]float64, 0, wantRows*wantCols)
	for i, row := range rows {
		if len(row) != wantCols {
			return nil, fmt.Errorf("%s row %d has %d entries, want %d", name, i, len(row), wantCols)
		}
		out = append(out, row...)
	}
	return out, nil
}

func nestRows(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}
