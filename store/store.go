// Package store keeps a history of conversion runs in SQLite.
package store

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

	"github.com/tsawler/msocr/model"
	"github.com/tsawler/msocr/store/migrations"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// Store is the SQLite run history.
type Store struct {
	db   *sql.DB
	path string
}

// RunRecord is the summary of one processed document.
type RunRecord struct {
	ID             string
	Source         string
	Title          string
	Outcome        string
	Languages      []string
	StartedAt      time.Time
	WallTime       time.Duration
	TotalPages     int
	PagesNative    int
	PagesOCR       int
	PagesFailed    int
	Tables         int
	WordsCorrected int
	AvgConfidence  *float64
	Outputs        []string
	Failures       []model.PageFailure
}

// RecordFromDocument summarises a processed document. started is the time
// the run began.
func RecordFromDocument(doc *model.Document, started time.Time, outputs []string) RunRecord {
	m := doc.Metrics
	return RunRecord{
		ID:             doc.RunID,
		Source:         doc.Source,
		Title:          doc.Title,
		Outcome:        doc.Outcome.String(),
		Languages:      append([]string(nil), doc.Languages...),
		StartedAt:      started,
		WallTime:       m.WallTime,
		TotalPages:     doc.TotalPages,
		PagesNative:    m.PagesNative,
		PagesOCR:       m.PagesOCR,
		PagesFailed:    m.PagesFailed,
		Tables:         m.TotalTables,
		WordsCorrected: m.TotalWordsCorrected,
		AvgConfidence:  m.AvgOCRConfidence,
		Outputs:        append([]string(nil), outputs...),
		Failures:       append([]model.PageFailure(nil), doc.Failures...),
	}
}

// DefaultDir is the data directory used when none is given
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".msocr", "data"), nil
}

// Open opens or creates the history database in dataDir. An empty dataDir
// selects DefaultDir.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
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

// migrate applies every embedded migration newer than the recorded version.
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

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveRun stores a run, replacing any previous record with the same ID.
func (s *Store) SaveRun(ctx context.Context, r RunRecord) error {
	if r.ID == "" {
		return errors.New("run record has no id")
	}
	langs, err := json.Marshal(nonNil(r.Languages))
	if err != nil {
		return fmt.Errorf("marshalling languages: %w", err)
	}
	outputs, err := json.Marshal(nonNil(r.Outputs))
	if err != nil {
		return fmt.Errorf("marshalling outputs: %w", err)
	}

	var conf sql.NullFloat64
	if r.AvgConfidence != nil {
		conf = sql.NullFloat64{Float64: *r.AvgConfidence, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, source, title, outcome, languages, started_at, wall_time_ms,
			total_pages, pages_native, pages_ocr, pages_failed, tables,
			words_corrected, avg_confidence, outputs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Source, r.Title, r.Outcome, string(langs), r.StartedAt.UTC(), r.WallTime.Milliseconds(),
		r.TotalPages, r.PagesNative, r.PagesOCR, r.PagesFailed, r.Tables,
		r.WordsCorrected, conf, string(outputs),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_failures WHERE run_id = ?", r.ID); err != nil {
		return fmt.Errorf("clearing failures: %w", err)
	}
	for _, f := range r.Failures {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO run_failures (run_id, page, stage, reason) VALUES (?, ?, ?, ?)",
			r.ID, f.PageIndex, string(f.Stage), f.Reason)
		if err != nil {
			return fmt.Errorf("saving failure for page %d: %w", f.PageIndex+1, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, source, title, outcome, languages, started_at, wall_time_ms,
	total_pages, pages_native, pages_ocr, pages_failed, tables,
	words_corrected, avg_confidence, outputs`

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its page failures.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return RunRecord{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT page, stage, reason FROM run_failures WHERE run_id = ? ORDER BY page", id)
	if err != nil {
		return RunRecord{}, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f model.PageFailure
		var stage string
		if err := rows.Scan(&f.PageIndex, &stage, &f.Reason); err != nil {
			return RunRecord{}, fmt.Errorf("scanning failure: %w", err)
		}
		f.Stage = model.Stage(stage)
		r.Failures = append(r.Failures, f)
	}
	return r, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		r       RunRecord
		langs   string
		outputs string
		wallMS  int64
		conf    sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.Source, &r.Title, &r.Outcome, &langs, &r.StartedAt, &wallMS,
		&r.TotalPages, &r.PagesNative, &r.PagesOCR, &r.PagesFailed, &r.Tables,
		&r.WordsCorrected, &conf, &outputs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning run: %w", err)
	}
	if err := json.Unmarshal([]byte(langs), &r.Languages); err != nil {
		return r, fmt.Errorf("unmarshalling languages: %w", err)
	}
	if err := json.Unmarshal([]byte(outputs), &r.Outputs); err != nil {
		return r, fmt.Errorf("unmarshalling outputs: %w", err)
	}
	r.WallTime = time.Duration(wallMS) * time.Millisecond
	if conf.Valid {
		v := conf.Float64
		r.AvgConfidence = &v
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
