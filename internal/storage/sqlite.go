package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding feedback documents.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "hansei.db")
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

const documentColumns = `id, type, submitter_email, submission_date, good_things, reflections, source, arrived_at, feedback_json, has_previous_report, processed_at`

// UpsertFeedbackDocument writes the document, overwriting any existing
// document with the same id (last writer wins).
func (s *Store) UpsertFeedbackDocument(ctx context.Context, doc FeedbackDocument) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			submitter_email = excluded.submitter_email,
			submission_date = excluded.submission_date,
			good_things = excluded.good_things,
			reflections = excluded.reflections,
			source = excluded.source,
			arrived_at = excluded.arrived_at,
			feedback_json = excluded.feedback_json,
			has_previous_report = excluded.has_previous_report,
			processed_at = excluded.processed_at`,
		doc.ID, doc.Type, doc.SubmitterEmail, doc.SubmissionDate,
		doc.GoodThings, doc.Reflections, doc.Source,
		doc.ArrivedAt.UTC().Format(time.RFC3339), doc.FeedbackJSON,
		doc.HasPreviousReport, doc.ProcessedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetFeedbackDocument returns the document with the given id, or
// ErrNotFound.
func (s *Store) GetFeedbackDocument(ctx context.Context, id string) (FeedbackDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM feedback_documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return FeedbackDocument{}, ErrNotFound
	}
	return doc, err
}

// ListPreviousDocuments returns up to limit documents for the submitter
// with a submission date strictly before beforeDate, most recent first.
// The strict comparison keeps the current submission (and anything newer)
// out of its own history.
func (s *Store) ListPreviousDocuments(ctx context.Context, submitterEmail, beforeDate string, limit int) ([]FeedbackDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM feedback_documents
		WHERE submitter_email = ? AND type = ? AND submission_date < ?
		ORDER BY submission_date DESC, arrived_at DESC
		LIMIT ?`, submitterEmail, DocumentType, beforeDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []FeedbackDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListRecentDocuments returns the newest documents overall, or for one
// submitter when submitterEmail is non-empty.
func (s *Store) ListRecentDocuments(ctx context.Context, submitterEmail string, limit int) ([]FeedbackDocument, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM feedback_documents
		WHERE type = ?`
	args := []any{DocumentType}
	if submitterEmail != "" {
		query += ` AND submitter_email = ?`
		args = append(args, submitterEmail)
	}
	query += ` ORDER BY processed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []FeedbackDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of stored feedback documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_documents WHERE type = ?`, DocumentType).Scan(&n)
	return n, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (FeedbackDocument, error) {
	var d FeedbackDocument
	var arrivedAt, processedAt string
	err := sc.Scan(
		&d.ID, &d.Type, &d.SubmitterEmail, &d.SubmissionDate,
		&d.GoodThings, &d.Reflections, &d.Source,
		&arrivedAt, &d.FeedbackJSON, &d.HasPreviousReport, &processedAt,
	)
	if err != nil {
		return FeedbackDocument{}, err
	}
	if d.ArrivedAt, err = time.Parse(time.RFC3339, arrivedAt); err != nil {
		return FeedbackDocument{}, fmt.Errorf("parsing arrived_at for %s: %w", d.ID, err)
	}
	if d.ProcessedAt, err = time.Parse(time.RFC3339, processedAt); err != nil {
		return FeedbackDocument{}, fmt.Errorf("parsing processed_at for %s: %w", d.ID, err)
	}
	return d, nil
}
