// Package config loads simulation run parameters from JSON files.
// Fields are pointers so a partial file only overrides what it names;
// the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// RunConfig holds the knobs for one simulation run. The same schema is
// accepted on the command line via -config; explicit flags win over
// file values.
type RunConfig struct {
	// Packets is the population size launched from the photosphere.
	Packets *int `json:"packets,omitempty"`
	// Seed fixes both the packet source and the transport streams.
	Seed *uint64 `json:"seed,omitempty"`
	// Workers sets the transport worker count; 0 means one per CPU.
	Workers *int `json:"workers,omitempty"`
	// Strict aborts the run on anomalous packet state instead of
	// logging and recovering.
	Strict *bool `json:"strict,omitempty"`
	// LegacyLineCursor keeps the stale line cursor across electron
	// scatters for comparison against historical runs.
	LegacyLineCursor *bool `json:"legacy_line_cursor,omitempty"`

	// PhotosphereTemperatureK sets the blackbody packet source.
	PhotosphereTemperatureK *float64 `json:"photosphere_temperature_k,omitempty"`

	// Spectrum binning.
	SpectrumBins *int     `json:"spectrum_bins,omitempty"`
	NuMin        *float64 `json:"nu_min,omitempty"`
	NuMax        *float64 `json:"nu_max,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// LoadRunConfig loads a RunConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *RunConfig) Validate() error {
	if c.Packets != nil && *c.Packets <= 0 {
		return fmt.Errorf("packets must be positive, got %d", *c.Packets)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.PhotosphereTemperatureK != nil && *c.PhotosphereTemperatureK <= 0 {
		return fmt.Errorf("photosphere_temperature_k must be positive, got %g", *c.PhotosphereTemperatureK)
	}
	if c.SpectrumBins != nil && *c.SpectrumBins <= 0 {
		return fmt.Errorf("spectrum_bins must be positive, got %d", *c.SpectrumBins)
	}
	if c.NuMin != nil && *c.NuMin <= 0 {
		return fmt.Errorf("nu_min must be positive, got %g", *c.NuMin)
	}
	if c.NuMin != nil && c.NuMax != nil && *c.NuMax <= *c.NuMin {
		return fmt.Errorf("nu_max %g must exceed nu_min %g", *c.NuMax, *c.NuMin)
	}
	return nil
}

// GetPackets returns the packet count or the default.
func (c *RunConfig) GetPackets() int {
	if c.Packets == nil {
		return 100000
	}
	return *c.Packets
}

// GetSeed returns the base seed or the default.
func (c *RunConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 23111963
	}
	return *c.Seed
}

// GetWorkers returns the worker count or one per CPU.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetStrict returns the strict flag or the default.
func (c *RunConfig) GetStrict() bool {
	if c.Strict == nil {
		return false
	}
	return *c.Strict
}

// GetLegacyLineCursor returns the legacy cursor flag or the default.
func (c *RunConfig) GetLegacyLineCursor() bool {
	if c.LegacyLineCursor == nil {
		return false
	}
	return *c.LegacyLineCursor
}

// GetPhotosphereTemperatureK returns the photospheric temperature or
// the default.
func (c *RunConfig) GetPhotosphereTemperatureK() float64 {
	if c.PhotosphereTemperatureK == nil {
		return 10000
	}
	return *c.PhotosphereTemperatureK
}

// GetSpectrumBins returns the bin count or the default.
func (c *RunConfig) GetSpectrumBins() int {
	if c.SpectrumBins == nil {
		return 500
	}
	return *c.SpectrumBins
}

// GetNuMin returns the lower spectrum bound or the default.
func (c *RunConfig) GetNuMin() float64 {
	if c.NuMin == nil {
		return 1e14
	}
	return *c.NuMin
}

// GetNuMax returns the upper spectrum bound or the default.
func (c *RunConfig) GetNuMax() float64 {
	if c.NuMax == nil {
		return 4e15
	}
	return *c.NuMax
}
