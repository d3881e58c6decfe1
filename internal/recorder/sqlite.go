package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PercentileBoard/internal/model"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			requested     INTEGER NOT NULL,
			row_count     INTEGER NOT NULL,
			failure_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS cells (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id    TEXT NOT NULL REFERENCES cycles(id),
			instrument  TEXT NOT NULL,
			date        TEXT NOT NULL,
			window_size INTEGER NOT NULL,
			percentile  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cells_inst ON cells(instrument, window_size, date)`,

		`CREATE TABLE IF NOT EXISTS pair_failures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id    TEXT NOT NULL REFERENCES cycles(id),
			instrument  TEXT NOT NULL,
			window_size INTEGER NOT NULL,
			empty       INTEGER NOT NULL,
			reason      TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSnapshot writes the cycle, its cells and its failures in one transaction.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO cycles (id, timestamp, requested, row_count, failure_count)
		VALUES (?,?,?,?,?)`,
		snap.ID, snap.TakenAt.Unix(), snap.Requested, len(snap.Rows), len(snap.Failures),
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, row := range snap.Rows {
		// Iterate the board's window order so inserts are deterministic.
		for _, w := range snap.Windows {
			v, ok := row.Value(w)
			if !ok {
				continue
			}
			if _, err := tx.Exec(`INSERT INTO cells (cycle_id, instrument, date, window_size, percentile)
				VALUES (?,?,?,?,?)`,
				snap.ID, string(row.Instrument), row.Date, int(w), v,
			); err != nil {
				return fmt.Errorf("insert cell: %w", err)
			}
		}
	}

	for _, f := range snap.Failures {
		empty := 0
		if f.Empty {
			empty = 1
		}
		if _, err := tx.Exec(`INSERT INTO pair_failures (cycle_id, instrument, window_size, empty, reason)
			VALUES (?,?,?,?,?)`,
			snap.ID, string(f.Instrument), int(f.Window), empty, f.Reason,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	return tx.Commit()
}

// CountCells returns how many cells were recorded for a cycle.
func (r *SQLiteRecorder) CountCells(cycleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cells WHERE cycle_id = ?`, cycleID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
