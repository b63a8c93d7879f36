package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Store is a SQLite database holding past analyses.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.marginalia/data/analyses.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "analyses.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ResultStore returns a ResultStore interface backed by this store.
func (s *Store) ResultStore() driven.ResultStore {
	return &resultStore{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_analyses.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Result Store ====================

// resultStore implements driven.ResultStore.
type resultStore struct {
	store *Store
}

var _ driven.ResultStore = (*resultStore)(nil)

// Save stores or replaces an analysis record.
func (s *resultStore) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: analysis record needs an id", domain.ErrInvalidInput)
	}

	pluginsJSON, err := json.Marshal(record.Plugins)
	if err != nil {
		return fmt.Errorf("marshalling plugins: %w", err)
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	findings := 0
	if record.Result != nil {
		findings = record.Result.Summary.TotalFindings
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO analyses (id, document_uri, title, document_hash, plugins, result, total_findings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_uri = excluded.document_uri,
			title = excluded.title,
			document_hash = excluded.document_hash,
			plugins = excluded.plugins,
			result = excluded.result,
			total_findings = excluded.total_findings,
			created_at = excluded.created_at
	`, record.ID, record.DocumentURI, record.Title, record.DocumentHash,
		string(pluginsJSON), string(resultJSON), findings, record.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID.
func (s *resultStore) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_uri, title, document_hash, plugins, result, created_at
		FROM analyses WHERE id = ?
	`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return record, nil
}

// List returns analyses newest first. A limit of zero or less returns all.
func (s *resultStore) List(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_uri, title, document_hash, plugins, result, created_at
		FROM analyses ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.AnalysisRecord, error) {
	var (
		record      domain.AnalysisRecord
		pluginsJSON string
		resultJSON  string
		createdAt   int64
	)
	if err := row.Scan(&record.ID, &record.DocumentURI, &record.Title, &record.DocumentHash,
		&pluginsJSON, &resultJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pluginsJSON), &record.Plugins); err != nil {
		return nil, fmt.Errorf("unmarshalling plugins: %w", err)
	}
	if resultJSON != "" && resultJSON != "null" {
		record.Result = &domain.AggregatedResult{}
		if err := json.Unmarshal([]byte(resultJSON), record.Result); err != nil {
			return nil, fmt.Errorf("unmarshalling result: %w", err)
		}
	}
	record.CreatedAt = time.Unix(0, createdAt)
	return &record, nil
}
