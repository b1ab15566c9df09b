// Package history provides SQLite-backed records of past publish runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME,
	public_notes  INTEGER NOT NULL DEFAULT 0,
	public_assets INTEGER NOT NULL DEFAULT 0,
	secret_notes  INTEGER NOT NULL DEFAULT 0,
	secret_assets INTEGER NOT NULL DEFAULT 0,
	site_ok       INTEGER NOT NULL DEFAULT 0,
	store_ok      INTEGER NOT NULL DEFAULT 0,
	detail        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id INTEGER NOT NULL,
	name   TEXT NOT NULL,
	kind   TEXT NOT NULL,
	class  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id);
`

// DB wraps a sql.DB with history-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Run is one recorded publish run.
type Run struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	PublicNotes  int
	PublicAssets int
	SecretNotes  int
	SecretAssets int
	SiteOK       bool
	StoreOK      bool
	Detail       string
}

// Outcome is the per-run summary recorded when a publish finishes.
type Outcome struct {
	PublicNotes  int
	PublicAssets int
	SecretNotes  int
	SecretAssets int
	SiteOK       bool
	StoreOK      bool
	Detail       string
}

// Begin inserts a new run row and returns its id.
func (db *DB) Begin(startedAt time.Time) (int64, error) {
	res, err := db.conn.Exec(`INSERT INTO runs (started_at) VALUES (?)`, startedAt)
	if err != nil {
		return 0, fmt.Errorf("history: begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}
	return id, nil
}

// RecordArtifact stores one published artifact for a run.
func (db *DB) RecordArtifact(runID int64, name, kind, class string) error {
	_, err := db.conn.Exec(`INSERT INTO artifacts (run_id, name, kind, class) VALUES (?, ?, ?, ?)`,
		runID, name, kind, class)
	if err != nil {
		return fmt.Errorf("history: record artifact: %w", err)
	}
	return nil
}

// Finish completes a run row with its outcome.
func (db *DB) Finish(runID int64, finishedAt time.Time, out Outcome) error {
	_, err := db.conn.Exec(`
		UPDATE runs SET
			finished_at   = ?,
			public_notes  = ?,
			public_assets = ?,
			secret_notes  = ?,
			secret_assets = ?,
			site_ok       = ?,
			store_ok      = ?,
			detail        = ?
		WHERE id = ?`,
		finishedAt, out.PublicNotes, out.PublicAssets, out.SecretNotes, out.SecretAssets,
		boolInt(out.SiteOK), boolInt(out.StoreOK), out.Detail, runID)
	if err != nil {
		return fmt.Errorf("history: finish run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (db *DB) Recent(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, COALESCE(finished_at, started_at),
		       public_notes, public_assets, secret_notes, secret_assets,
		       site_ok, store_ok, detail
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r row
		var siteOK, storeOK int
		if err := rows.Scan(&r.id, &r.started, &r.finished,
			&r.publicNotes, &r.publicAssets, &r.secretNotes, &r.secretAssets,
			&siteOK, &storeOK, &r.detail); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		out = append(out, Run{
			ID:           r.id,
			StartedAt:    r.started,
			FinishedAt:   r.finished,
			PublicNotes:  r.publicNotes,
			PublicAssets: r.publicAssets,
			SecretNotes:  r.secretNotes,
			SecretAssets: r.secretAssets,
			SiteOK:       siteOK != 0,
			StoreOK:      storeOK != 0,
			Detail:       r.detail,
		})
	}
	return out, rows.Err()
}

// Artifacts returns the artifacts recorded for one run.
func (db *DB) Artifacts(runID int64) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: artifacts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("history: scan artifact: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

type row struct {
	id                                                   int64
	started, finished                                    time.Time
	publicNotes, publicAssets, secretNotes, secretAssets int
	detail                                               string
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
