package seen

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists seen records across restarts. NOT an interface -
// concrete type. Safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens (and if needed creates) the seen database.
// Uses WAL mode for file-based databases.
func OpenStore(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so all pooled connections see the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_items (
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		score REAL NOT NULL,
		seen_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_seen_at ON seen_items(seen_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns all records seen at or after cutoff, oldest first.
func (s *Store) Load(cutoff time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT title, link, score, seen_at FROM seen_items WHERE seen_at >= ? ORDER BY seen_at`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query seen items: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.Link, &r.Score, &r.SeenAt); err != nil {
			return nil, fmt.Errorf("scan seen item: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Append inserts records in a single transaction.
func (s *Store) Append(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO seen_items (title, link, score, seen_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Title, r.Link, r.Score, r.SeenAt); err != nil {
			return fmt.Errorf("insert seen item: %w", err)
		}
	}
	return tx.Commit()
}

// Prune removes records seen before cutoff.
func (s *Store) Prune(cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM seen_items WHERE seen_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("prune seen items: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
