package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the history subcommand can read while watch mode writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dashboard_runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT,
			company      TEXT,
			sector       TEXT,
			source       TEXT,
			row_count    INTEGER,
			latest_close REAL,
			change       REAL,
			change_pct   REAL,
			high         REAL,
			low          REAL,
			avg_volume   REAL,
			outcome      TEXT NOT NULL,
			note         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON dashboard_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON dashboard_runs(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO dashboard_runs
		(id, timestamp, ticker, company, sector, source, row_count,
		 latest_close, change, change_pct, high, low, avg_volume,
		 outcome, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, ts.UnixMilli(), rec.Ticker, rec.Company, rec.Sector, rec.Source, rec.Rows,
		rec.LatestClose, rec.Change, rec.ChangePct, rec.High, rec.Low, rec.AvgVolume,
		string(rec.Outcome), rec.Note,
	)
	return err
}

func (r *SQLiteRecorder) ListRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, ticker, company, sector, source, row_count,
		latest_close, change, change_pct, high, low, avg_volume, outcome, note
		FROM dashboard_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec     RunRecord
			ms      int64
			outcome string
		)
		if err := rows.Scan(&rec.ID, &ms, &rec.Ticker, &rec.Company, &rec.Sector, &rec.Source, &rec.Rows,
			&rec.LatestClose, &rec.Change, &rec.ChangePct, &rec.High, &rec.Low, &rec.AvgVolume,
			&outcome, &rec.Note); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ms)
		rec.Outcome = Outcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
