package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the fetch audit trail to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger logrus.FieldLogger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			provider    TEXT,
			range_start INTEGER,
			range_end   INTEGER,
			bars        INTEGER,
			outcome     TEXT NOT NULL,
			error_kind  TEXT,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_symbol ON fetch_events(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, request_id, seq, symbol, provider, range_start, range_end,
		 bars, outcome, error_kind, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		at.Unix(), evt.RequestID, int64(evt.Seq), evt.Symbol, evt.Provider,
		evt.Start.Unix(), evt.End.Unix(),
		evt.Bars, evt.Outcome, evt.ErrorKind, evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

// RecentFetches returns up to limit events, newest first.
func (r *SQLiteRecorder) RecentFetches(limit int) ([]FetchEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT timestamp, request_id, seq, symbol, provider,
		range_start, range_end, bars, outcome, error_kind, error, duration_ms
		FROM fetch_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetch events: %w", err)
	}
	defer rows.Close()

	var events []FetchEvent
	for rows.Next() {
		var (
			evt                 FetchEvent
			ts, start, end, dur int64
			seq                 int64
		)
		if err := rows.Scan(&ts, &evt.RequestID, &seq, &evt.Symbol, &evt.Provider,
			&start, &end, &evt.Bars, &evt.Outcome, &evt.ErrorKind, &evt.Error, &dur); err != nil {
			return nil, fmt.Errorf("scan fetch event: %w", err)
		}
		evt.At = time.Unix(ts, 0)
		evt.Seq = uint64(seq)
		evt.Start = time.Unix(start, 0).UTC()
		evt.End = time.Unix(end, 0).UTC()
		evt.Duration = time.Duration(dur) * time.Millisecond
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
