// Package sqlite persists simulation runs, shell estimators, and
// binned spectra in a local SQLite database. The schema is managed by
// embedded migrations so a fresh database file is usable immediately.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/corvid-astro/sobolev/internal/montecarlo"
	"github.com/corvid-astro/sobolev/internal/spectrum"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite handle with run persistence helpers.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies any pending
// migrations.
func Open(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	db := &DB{handle}
	if err := db.migrateUp(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// The migrate instance is not closed: closing it would close the
	// underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// RunRecord summarizes one completed transport run.
type RunRecord struct {
	ID              string
	CreatedAt       time.Time
	SnapshotPath    string
	LineInteraction string
	Packets         int
	Seed            uint64
	Workers         int
	Escaped         int
	Reabsorbed      int
	EscapedEnergy   float64
}

// RecordRun stores a run summary together with its per-shell
// estimators and binned spectrum in one transaction. If rec.ID is
// empty a fresh UUID is assigned; the stored ID is returned.
func (db *DB) RecordRun(ctx context.Context, rec RunRecord, est *montecarlo.Estimators, sp *spectrum.Spectrum) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, snapshot_path, line_interaction, packets, seed, workers, escaped, reabsorbed, escaped_energy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SnapshotPath, rec.LineInteraction, rec.Packets, int64(rec.Seed),
		rec.Workers, rec.Escaped, rec.Reabsorbed, rec.EscapedEnergy)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", rec.ID, err)
	}

	if est != nil {
		for shell := range est.J {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO shell_estimators (run_id, shell, j_estimator, nu_bar_estimator)
				VALUES (?, ?, ?, ?)`,
				rec.ID, shell, est.J[shell], est.NuBar[shell])
			if err != nil {
				return "", fmt.Errorf("insert shell %d estimators: %w", shell, err)
			}
		}
	}

	if sp != nil {
		for bin := 0; bin < sp.Bins(); bin++ {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO spectrum_bins (run_id, bin, nu_lower, nu_upper, flux)
				VALUES (?, ?, ?, ?, ?)`,
				rec.ID, bin, sp.NuEdges[bin], sp.NuEdges[bin+1], sp.Flux[bin])
			if err != nil {
				return "", fmt.Errorf("insert spectrum bin %d: %w", bin, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// GetRun loads a run summary by ID.
func (db *DB) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	rec := &RunRecord{}
	var seed int64
	err := db.QueryRowContext(ctx, `
		SELECT run_id, created_at, snapshot_path, line_interaction, packets, seed, workers, escaped, reabsorbed, escaped_energy
		FROM runs WHERE run_id = ?`, id).Scan(
		&rec.ID, &rec.CreatedAt, &rec.SnapshotPath, &rec.LineInteraction,
		&rec.Packets, &seed, &rec.Workers, &rec.Escaped, &rec.Reabsorbed, &rec.EscapedEnergy)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	rec.Seed = uint64(seed)
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, created_at, snapshot_path, line_interaction, packets, seed, workers, escaped, reabsorbed, escaped_energy
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var seed int64
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.SnapshotPath, &rec.LineInteraction,
			&rec.Packets, &seed, &rec.Workers, &rec.Escaped, &rec.Reabsorbed, &rec.EscapedEnergy); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		rec.Seed = uint64(seed)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ShellEstimators loads the per-shell estimators recorded for a run.
func (db *DB) ShellEstimators(ctx context.Context, runID string) (*montecarlo.Estimators, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT shell, j_estimator, nu_bar_estimator
		FROM shell_estimators WHERE run_id = ? ORDER BY shell`, runID)
	if err != nil {
		return nil, fmt.Errorf("load estimators for run %s: %w", runID, err)
	}
	defer rows.Close()

	est := &montecarlo.Estimators{}
	for rows.Next() {
		var shell int
		var j, nuBar float64
		if err := rows.Scan(&shell, &j, &nuBar); err != nil {
			return nil, fmt.Errorf("scan estimator row: %w", err)
		}
		if shell != len(est.J) {
			return nil, fmt.Errorf("run %s: estimator rows not contiguous at shell %d", runID, shell)
		}
		est.J = append(est.J, j)
		est.NuBar = append(est.NuBar, nuBar)
	}
	return est, rows.Err()
}

// SpectrumBins loads the binned spectrum recorded for a run.
func (db *DB) SpectrumBins(ctx context.Context, runID string) (*spectrum.Spectrum, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT bin, nu_lower, nu_upper, flux
		FROM spectrum_bins WHERE run_id = ? ORDER BY bin`, runID)
	if err != nil {
		return nil, fmt.Errorf("load spectrum for run %s: %w", runID, err)
	}
	defer rows.Close()

	sp := &spectrum.Spectrum{}
	for rows.Next() {
		var bin int
		var lo, hi, flux float64
		if err := rows.Scan(&bin, &lo, &hi, &flux); err != nil {
			return nil, fmt.Errorf("scan spectrum row: %w", err)
		}
		if bin != len(sp.Flux) {
			return nil, fmt.Errorf("run %s: spectrum rows not contiguous at bin %d", runID, bin)
		}
		if bin == 0 {
			sp.NuEdges = append(sp.NuEdges, lo)
		}
		sp.NuEdges = append(sp.NuEdges, hi)
		sp.Flux = append(sp.Flux, flux)
	}
	return sp, rows.Err()
}
