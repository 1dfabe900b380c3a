// Package factstore implements the long-term fact store: a single
// full-text-search-indexed table of facts, written by the memory skill
// and read by the dispatcher's chat path. It uses the pure-Go
// modernc.org/sqlite driver with a single hand-written FTS5 schema,
// since this store has exactly one table and no migration history to
// track.
package factstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/letrezdraw/AIST/internal/policy"
)

// Fact is one row of general_facts.
type Fact struct {
	Content   string
	Timestamp time.Time
	Source    string
}

// Store wraps a *sql.DB pointed at a single SQLite file holding the
// general_facts FTS5 table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite file at path and ensures the
// general_facts schema is present and FTS5-backed, migrating in place if
// an older non-FTS schema is found.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("factstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("factstore: ping %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate ensures general_facts exists as an FTS5 virtual table. If a
// table already exists under that name but is not FTS5-backed (an
// outdated schema from an older build), its rows are copied into a
// freshly created FTS5 table and the old table is dropped, preserving
// unrelated data elsewhere in the database file.
func (s *Store) migrate() error {
	isFTS, tableExists, err := s.inspectSchema()
	if err != nil {
		return err
	}

	if tableExists && !isFTS {
		if err := s.rebuildFromLegacyTable(); err != nil {
			return err
		}
		return nil
	}

	if !tableExists {
		_, err := s.db.Exec(`CREATE VIRTUAL TABLE general_facts USING fts5(content, timestamp UNINDEXED, source UNINDEXED)`)
		if err != nil {
			return fmt.Errorf("factstore: create general_facts: %w", err)
		}
	}
	return nil
}

func (s *Store) inspectSchema() (isFTS bool, exists bool, err error) {
	var sqlText string
	row := s.db.QueryRow(`SELECT sql FROM sqlite_master WHERE type IN ('table') AND name = 'general_facts'`)
	err = row.Scan(&sqlText)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("factstore: inspect schema: %w", err)
	}
	return strings.Contains(strings.ToLower(sqlText), "fts5") || strings.Contains(strings.ToLower(sqlText), "virtual table"), true, nil
}

func (s *Store) rebuildFromLegacyTable() error {
	rows, err := s.db.Query(`SELECT content, timestamp, source FROM general_facts`)
	if err != nil {
		return fmt.Errorf("factstore: read legacy general_facts: %w", err)
	}
	var legacy []Fact
	for rows.Next() {
		var f Fact
		var ts string
		if err := rows.Scan(&f.Content, &ts, &f.Source); err != nil {
			rows.Close()
			return fmt.Errorf("factstore: scan legacy row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			f.Timestamp = parsed
		}
		legacy = append(legacy, f)
	}
	rows.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DROP TABLE general_facts`); err != nil {
		tx.Rollback()
		return fmt.Errorf("factstore: drop legacy general_facts: %w", err)
	}
	if _, err := tx.Exec(`CREATE VIRTUAL TABLE general_facts USING fts5(content, timestamp UNINDEXED, source UNINDEXED)`); err != nil {
		tx.Rollback()
		return fmt.Errorf("factstore: recreate general_facts: %w", err)
	}
	for _, f := range legacy {
		if _, err := tx.Exec(`INSERT INTO general_facts(content, timestamp, source) VALUES (?, ?, ?)`,
			f.Content, f.Timestamp.Format(time.RFC3339), f.Source); err != nil {
			tx.Rollback()
			return fmt.Errorf("factstore: reinsert legacy row: %w", err)
		}
	}
	return tx.Commit()
}

// StoreFact appends content under source, stamped with the current time.
// Email addresses, phone numbers, and card numbers are redacted before
// the row is written, since general_facts has no per-row access control
// and anything stored here can surface verbatim in a later chat reply.
func (s *Store) StoreFact(ctx context.Context, content, source string) error {
	content, _ = policy.RedactPII(content)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO general_facts(content, timestamp, source) VALUES (?, ?, ?)`,
		content, time.Now().UTC().Format(time.RFC3339), source)
	if err != nil {
		return fmt.Errorf("factstore: store fact: %w", err)
	}
	return nil
}

// RetrieveRelevantFacts runs an FTS match against query and returns up to
// topN facts ranked by bm25 relevance, most relevant first.
func (s *Store) RetrieveRelevantFacts(ctx context.Context, query string, topN int) ([]Fact, error) {
	if topN <= 0 {
		topN = 3
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT content, timestamp, source FROM general_facts WHERE general_facts MATCH ? ORDER BY bm25(general_facts) LIMIT ?`,
		ftsQuery(query), topN)
	if err != nil {
		return nil, fmt.Errorf("factstore: retrieve relevant facts: %w", err)
	}
	defer rows.Close()

	var out []Fact
	for rows.Next() {
		var f Fact
		var ts string
		if err := rows.Scan(&f.Content, &ts, &f.Source); err != nil {
			return nil, fmt.Errorf("factstore: scan fact row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			f.Timestamp = parsed
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ftsQuery wraps each whitespace-separated term in double quotes so that
// punctuation or FTS5 operator characters in free-form speech transcripts
// never produce a syntax error from the query parser.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}
