// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records formatter runs in a local SQLite database.
//
// Replacing a page's content is a sequence of archive and append requests
// with no transaction around them. Each run therefore stores the page's
// Markdown as it was before replacement, so a page left half replaced by
// a failure can be restored by hand.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// DefaultPath is the database location used when none is configured.
const DefaultPath = ".notion-formatter/history.db"

// ErrNotFound is returned when no run matches the requested ID.
var ErrNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			page_id TEXT NOT NULL,
			template_page_id TEXT NOT NULL,
			review_page_id TEXT,
			status TEXT NOT NULL,
			is_complete INTEGER NOT NULL DEFAULT 0,
			completion_message TEXT,
			block_count INTEGER NOT NULL DEFAULT 0,
			archived INTEGER NOT NULL DEFAULT 0,
			preserved INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			before_markdown TEXT,
			after_markdown TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_page_id ON runs(page_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin inserts a new run in the started state. An empty ID is replaced by
// a fresh UUID and StartedAt is set to the current time.
func (s *Store) Begin(ctx context.Context, run types.Run) (types.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Status = types.RunStarted
	run.StartedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, page_id, template_page_id, review_page_id, status,
			before_markdown, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PageID, run.TemplatePageID, nullable(run.ReviewPageID), string(run.Status),
		run.BeforeMarkdown, formatTime(run.StartedAt),
	)
	if err != nil {
		return run, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// Finish records the outcome of a run started with Begin. The status is
// RunFailed when run.Error is set and RunApplied otherwise.
func (s *Store) Finish(ctx context.Context, run types.Run) error {
	run.Status = types.RunApplied
	if run.Error != "" {
		run.Status = types.RunFailed
	}
	run.FinishedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, is_complete = ?, completion_message = ?,
			block_count = ?, archived = ?, preserved = ?, error = ?,
			after_markdown = ?, finished_at = ?
		WHERE id = ?`,
		string(run.Status), run.IsComplete, run.CompletionMessage,
		run.BlockCount, run.Archived, run.Preserved, nullable(run.Error),
		run.AfterMarkdown, formatTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// ListOptions filters List results.
type ListOptions struct {
	// PageID restricts results to one page.
	PageID string

	// Limit caps the number of runs returned (default 20).
	Limit int

	// WithMarkdown includes the before/after snapshots.
	WithMarkdown bool
}

const runColumns = `id, page_id, template_page_id, review_page_id, status, is_complete,
	completion_message, block_count, archived, preserved, error,
	before_markdown, after_markdown, started_at, finished_at`

// List returns runs newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if opts.PageID != "" {
		query += ` WHERE page_id = ?`
		args = append(args, opts.PageID)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if !opts.WithMarkdown {
			run.BeforeMarkdown, run.AfterMarkdown = "", ""
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose ID equals id or, failing that, the single run
// whose ID starts with id.
func (s *Store) Get(ctx context.Context, id string) (types.Run, error) {
	if id == "" {
		return types.Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY (id = ?) DESC LIMIT 2`,
		id, id+"%", id)
	if err != nil {
		return types.Run{}, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	var matches []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return types.Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return types.Run{}, err
	}

	switch {
	case len(matches) == 0:
		return types.Run{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	case matches[0].ID == id || len(matches) == 1:
		return matches[0], nil
	default:
		return types.Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		run                            types.Run
		status, startedAt              string
		reviewPageID, message, errText sql.NullString
		before, after, finishedAt      sql.NullString
	)
	err := sc.Scan(&run.ID, &run.PageID, &run.TemplatePageID, &reviewPageID, &status, &run.IsComplete,
		&message, &run.BlockCount, &run.Archived, &run.Preserved, &errText,
		&before, &after, &startedAt, &finishedAt)
	if err != nil {
		return run, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = types.RunStatus(status)
	run.ReviewPageID = reviewPageID.String
	run.CompletionMessage = message.String
	run.Error = errText.String
	run.BeforeMarkdown = before.String
	run.AfterMarkdown = after.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt.String)
	return run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
