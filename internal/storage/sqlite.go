// Package storage persists corpus snapshots, their records, and the
// interaction log in a single SQLite database.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for corpora and interactions.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "pulse.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for the vector store, which shares
// this database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Corpora ---

// SaveCorpus persists a corpus snapshot and its records, replacing any prior
// snapshot. Only one corpus lives in the database at a time, mirroring the
// replace-not-mutate ingestion model.
func (s *Store) SaveCorpus(c *corpus.Corpus) error {
	if c == nil {
		return fmt.Errorf("saving corpus: nil corpus")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM feedback_records"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM corpora"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing corpora: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO corpora (version, source_name, created_at, excluded)
		VALUES (?, ?, ?, ?)`,
		c.Version, c.SourceName, c.CreatedAt.UTC().Format(time.RFC3339), c.Excluded,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting corpus %d: %w", c.Version, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO feedback_records (id, corpus_version, raw_text, normalized_text, low_signal, record_timestamp, source, engagement, label, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range c.Records {
		var ts interface{}
		if r.HasTimestamp() {
			ts = r.Timestamp.UTC().Format(time.RFC3339)
		}
		var engagement interface{}
		if r.Engagement != nil {
			engagement = *r.Engagement
		}
		if _, err := stmt.Exec(r.ID, c.Version, r.RawText, r.NormalizedText, r.LowSignal, ts, string(r.Source), engagement, string(r.Label), r.Score); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// LatestCorpus loads the stored corpus snapshot, ErrNotFound when none exists.
// Used to warm-start the service after a restart.
func (s *Store) LatestCorpus() (*corpus.Corpus, error) {
	var c corpus.Corpus
	var createdAt string
	err := s.db.QueryRow(`
		SELECT version, source_name, created_at, excluded
		FROM corpora ORDER BY version DESC LIMIT 1`,
	).Scan(&c.Version, &c.SourceName, &createdAt, &c.Excluded)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t

	// rowid follows insertion order; record IDs are UUIDs and carry none.
	rows, err := s.db.Query(`
		SELECT id, raw_text, normalized_text, low_signal, record_timestamp, source, engagement, label, score
		FROM feedback_records WHERE corpus_version = ? ORDER BY rowid ASC`, c.Version)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r corpus.Record
		var ts sql.NullString
		var engagement sql.NullInt64
		var source, label string
		if err := rows.Scan(&r.ID, &r.RawText, &r.NormalizedText, &r.LowSignal, &ts, &source, &engagement, &label, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if ts.Valid {
			t, err := time.Parse(time.RFC3339, ts.String)
			if err != nil {
				return nil, fmt.Errorf("parsing timestamp for record %s: %w", r.ID, err)
			}
			r.Timestamp = t
		}
		if engagement.Valid {
			n := int(engagement.Int64)
			r.Engagement = &n
		}
		r.Source = corpus.Source(source)
		r.Label = corpus.Label(label)
		c.Records = append(c.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Interactions ---

func (s *Store) SaveInteraction(i Interaction) error {
	status := i.Status
	if status == "" {
		status = "answered"
	}
	chunkIDs := i.ChunkIDs
	if chunkIDs == "" {
		chunkIDs = "[]"
	}
	_, err := s.db.Exec(`
		INSERT INTO interactions (id, created_at, question, answer, model, status, chunk_ids, corpus_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.CreatedAt.UTC().Format(time.RFC3339), i.Question, i.Answer,
		i.Model, status, chunkIDs, i.CorpusVersion,
	)
	return err
}

func (s *Store) GetInteraction(id string) (Interaction, error) {
	var i Interaction
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, created_at, question, answer, model, status, chunk_ids, corpus_version
		FROM interactions WHERE id = ?`, id,
	).Scan(&i.ID, &createdAt, &i.Question, &i.Answer, &i.Model, &i.Status, &i.ChunkIDs, &i.CorpusVersion)
	if err == sql.ErrNoRows {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

func (s *Store) ListInteractions(limit int) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, question, answer, model, status, chunk_ids, corpus_version
		FROM interactions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		var i Interaction
		var createdAt string
		if err := rows.Scan(&i.ID, &createdAt, &i.Question, &i.Answer, &i.Model, &i.Status, &i.ChunkIDs, &i.CorpusVersion); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		i.CreatedAt = t
		results = append(results, i)
	}
	return results, rows.Err()
}
