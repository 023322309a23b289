package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"swimcore"

	_ "modernc.org/sqlite"
)

// Event is one row of the audit log: a membership event observed by self
// about peer, with the wall-clock time it was recorded.
type Event struct {
	ID        int64
	Self      string
	Peer      string
	Kind      string
	Recorded  time.Time
}

const (
	kindAdded   = "added"
	kindRemoved = "removed"
)

// SQLite persists every node-added/node-removed event to a SQLite
// database, so a long-running cluster's membership history survives the
// process and can be queried after the fact.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed audit log at
// path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit log directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS membership_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	self TEXT NOT NULL,
	peer TEXT NOT NULL,
	kind TEXT NOT NULL,
	recorded_at TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize membership events schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) insert(self, peer swimcore.Address, kind string) {
	_, err := s.db.Exec(
		`INSERT INTO membership_events (self, peer, kind, recorded_at) VALUES (?, ?, ?, ?)`,
		self.String(), peer.String(), kind, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		// The audit log is diagnostic, not load-bearing for protocol
		// correctness; a write failure here must never propagate back
		// into a node's tick.
		return
	}
}

func (s *SQLite) LogNodeAdded(self, peer swimcore.Address)   { s.insert(self, peer, kindAdded) }
func (s *SQLite) LogNodeRemoved(self, peer swimcore.Address) { s.insert(self, peer, kindRemoved) }
func (s *SQLite) Log(swimcore.Address, string)               {}

// Events returns every recorded event for self, oldest first.
func (s *SQLite) Events(self swimcore.Address) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, self, peer, kind, recorded_at FROM membership_events WHERE self = ? ORDER BY id`,
		self.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query membership events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var recorded string
		if err := rows.Scan(&e.ID, &e.Self, &e.Peer, &e.Kind, &recorded); err != nil {
			return nil, fmt.Errorf("scan membership event row: %w", err)
		}
		e.Recorded, err = time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate membership event rows: %w", err)
	}
	return out, nil
}
