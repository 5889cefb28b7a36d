// Command sobolev runs a Monte Carlo radiative transfer simulation
// over a plasma snapshot and writes out the emergent spectrum.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/corvid-astro/sobolev/internal/config"
	"github.com/corvid-astro/sobolev/internal/montecarlo"
	"github.com/corvid-astro/sobolev/internal/packetsource"
	"github.com/corvid-astro/sobolev/internal/snapshotio"
	"github.com/corvid-astro/sobolev/internal/spectrum"
	"github.com/corvid-astro/sobolev/internal/storage/sqlite"
	"github.com/corvid-astro/sobolev/internal/version"
)

var (
	snapshotPath = flag.String("snapshot", "", "path to the plasma snapshot JSON (required)")
	configPath   = flag.String("config", "", "path to a run config JSON; explicit flags win")
	packets      = flag.Int("packets", 0, "packet population size")
	seed         = flag.Uint64("seed", 0, "base random seed")
	workers      = flag.Int("workers", 0, "transport workers (0 = one per CPU)")
	strict       = flag.Bool("strict", false, "abort on anomalous packet state")
	legacyCursor = flag.Bool("legacy-line-cursor", false, "keep the stale line cursor across electron scatters")
	temperature  = flag.Float64("temperature", 0, "photospheric temperature (K)")
	bins         = flag.Int("bins", 0, "spectrum bin count")
	nuMin        = flag.Float64("nu-min", 0, "spectrum lower bound (Hz)")
	nuMax        = flag.Float64("nu-max", 0, "spectrum upper bound (Hz)")
	dbPath       = flag.String("db", "", "record the run in this SQLite database")
	pngPath      = flag.String("png", "", "write the spectrum as a PNG")
	htmlPath     = flag.String("html", "", "write the spectrum as an interactive HTML page")
	verbose      = flag.Bool("verbose", false, "enable diagnostic logging")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("sobolev %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func run() error {
	cfg := &config.RunConfig{}
	if *configPath != "" {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	diag := os.Stderr
	if !*verbose {
		diag = nil
	}
	montecarlo.SetLogWriters(os.Stderr, diag, nil)

	snap, err := snapshotio.Load(*snapshotPath)
	if err != nil {
		return err
	}
	log.Printf("loaded %s: %d shells, %d lines, %s interaction",
		*snapshotPath, snap.Shells(), snap.Lines(), snap.LineInteraction)

	source := packetsource.Blackbody{
		Temperature: cfg.GetPhotosphereTemperatureK(),
		Seed:        cfg.GetSeed(),
	}
	pkts, err := source.Packets(cfg.GetPackets())
	if err != nil {
		return err
	}

	res, err := montecarlo.Run(snap, pkts, montecarlo.Options{
		Workers:          cfg.GetWorkers(),
		Seed:             cfg.GetSeed(),
		Strict:           cfg.GetStrict(),
		LegacyLineCursor: cfg.GetLegacyLineCursor(),
	})
	if err != nil {
		return err
	}
	log.Printf("transported %d packets: %d escaped, %d reabsorbed",
		pkts.Len(), res.Escaped, res.Reabsorbed)

	sp, err := spectrum.Build(res.OutputNu, res.OutputEnergy, cfg.GetNuMin(), cfg.GetNuMax(), cfg.GetSpectrumBins())
	if err != nil {
		return err
	}
	log.Printf("escaped energy %.6g over %d bins [%g, %g] Hz",
		sp.EscapedEnergy, sp.Bins(), cfg.GetNuMin(), cfg.GetNuMax())

	if *pngPath != "" {
		if err := sp.WritePNG(*pngPath, "Emergent spectrum"); err != nil {
			return err
		}
		log.Printf("wrote %s", *pngPath)
	}
	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", *htmlPath, err)
		}
		if err := sp.RenderHTML(f, "Emergent spectrum"); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote %s", *htmlPath)
	}

	if *dbPath != "" {
		db, err := sqlite.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.RecordRun(context.Background(), sqlite.RunRecord{
			SnapshotPath:    *snapshotPath,
			LineInteraction: snap.LineInteraction.String(),
			Packets:         pkts.Len(),
			Seed:            cfg.GetSeed(),
			Workers:         cfg.GetWorkers(),
			Escaped:         res.Escaped,
			Reabsorbed:      res.Reabsorbed,
			EscapedEnergy:   sp.EscapedEnergy,
		}, res.Estimators, sp)
		if err != nil {
			return err
		}
		log.Printf("recorded run %s in %s", id, *dbPath)
	}
	return nil
}

// applyFlagOverrides copies explicitly-set flags into the config so
// the Get* accessors see them ahead of file values and defaults.
func applyFlagOverrides(cfg *config.RunConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "packets":
			cfg.Packets = packets
		case "seed":
			cfg.Seed = seed
		case "workers":
			cfg.Workers = workers
		case "strict":
			cfg.Strict = strict
		case "legacy-line-cursor":
			cfg.LegacyLineCursor = legacyCursor
		case "temperature":
			cfg.PhotosphereTemperatureK = temperature
		case "bins":
			cfg.SpectrumBins = bins
		case "nu-min":
			cfg.NuMin = nuMin
		case "nu-max":
			cfg.NuMax = nuMax
		}
	})
}
