package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBStore implements ArtifactStore on a DuckDB database.
type DuckDBStore struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewDuckDBStore opens the database at path. An empty path keeps the history in memory.
func NewDuckDBStore(log *logger.Logger, path string) (*DuckDBStore, error) {
	log = log.Named("store")

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create database directory", err)
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		log.Error("Failed to open database", zap.String("path", dsn), zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		log.Error("Failed to connect to database", zap.String("path", dsn), zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to connect to database", err)
	}

	s := &DuckDBStore{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := s.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// SaveRun implements ArtifactStore.
func (s *DuckDBStore) SaveRun(ctx context.Context, run Run, files []File) error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = s.sq.
		Insert("runs").
		Columns("id", "strategy", "generator_version", "targets", "diagnostics", "created_at").
		Values(run.ID, run.Strategy, run.GeneratorVersion, strings.Join(run.Targets, ","), run.Diagnostics, run.CreatedAt).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to insert run %s", run.ID)
	}

	for i, f := range files {
		_, err = s.sq.
			Insert("files").
			Columns("run_id", "position", "target", "name", "content").
			Values(run.ID, i, f.Target, f.Name, f.Content).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to insert file %s", f.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit run", err)
	}

	s.log.Debug("saved run",
		zap.String("run", run.ID),
		zap.String("strategy", run.Strategy),
		zap.Int("files", len(files)),
	)

	return nil
}

// ListRuns implements ArtifactStore.
func (s *DuckDBStore) ListRuns(ctx context.Context, strategy string) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "store is closed")
	}

	query := s.sq.
		Select("id", "strategy", "generator_version", "targets", "diagnostics", "created_at").
		From("runs").
		OrderBy("created_at DESC", "id ASC")

	if strategy != "" {
		query = query.Where(squirrel.Eq{"strategy": strategy})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query runs", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var run Run

		var targets string

		if err := rows.Scan(&run.ID, &run.Strategy, &run.GeneratorVersion, &targets, &run.Diagnostics, &run.CreatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan run", err)
		}

		if targets != "" {
			run.Targets = strings.Split(targets, ",")
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "error iterating runs", err)
	}

	return runs, nil
}

// GetFiles implements ArtifactStore.
func (s *DuckDBStore) GetFiles(ctx context.Context, runID string) ([]File, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "store is closed")
	}

	rows, err := s.sq.
		Select("run_id", "target", "name", "content").
		From("files").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("position ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreQueryFailed, err, "failed to query files of run %s", runID)
	}
	defer rows.Close()

	var files []File

	for rows.Next() {
		var f File
		if err := rows.Scan(&f.RunID, &f.Target, &f.Name, &f.Content); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan file", err)
		}

		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "error iterating files", err)
	}

	return files, nil
}

// Export implements ArtifactStore.
func (s *DuckDBStore) Export(dir string) error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "store is closed")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create directory", err)
	}

	for _, table := range []string{"runs", "files"} {
		path := filepath.Join(dir, table+".parquet")

		_, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to export %s to Parquet", table)
		}
	}

	s.log.Info("Successfully exported compile history to Parquet files", zap.String("dir", dir))

	return nil
}

// Cleanup drops every recorded run.
func (s *DuckDBStore) Cleanup() error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "store is closed")
	}

	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS files;
		DROP TABLE IF EXISTS runs;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to drop history tables", err)
	}

	return s.initialize()
}

// Close closes the database connection.
func (s *DuckDBStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *DuckDBStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			strategy TEXT,
			generator_version TEXT,
			targets TEXT,
			diagnostics INTEGER,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create runs table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			run_id TEXT,
			position INTEGER,
			target TEXT,
			name TEXT,
			content TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create files table", err)
	}

	return nil
}
