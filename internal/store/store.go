// Package store handles SQLite persistence of finished tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/replaylog"

	_ "modernc.org/sqlite" // SQLite driver.
)

// PageSize is the number of tests returned per ListTests call.
const PageSize = 30

// MaxFilters bounds the distinct filters of one query.
const MaxFilters = 5

var (
	// ErrNotFound is returned when no test has the requested id.
	ErrNotFound = errors.New("test not found")
	// ErrTooManyFilters is returned when a query carries more than MaxFilters filters.
	ErrTooManyFilters = errors.New("too many filters")
	// ErrCorruptLog reports a stored replay log that no longer decodes.
	ErrCorruptLog = errors.New("stored replay log is corrupt")
)

// Store wraps SQLite access for finished tests.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tests (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			words TEXT NOT NULL,
			quote_id TEXT NOT NULL,
			time_limit INTEGER NOT NULL,
			word_limit INTEGER NOT NULL,
			seconds_taken REAL NOT NULL,
			correct_chars INTEGER NOT NULL,
			incorrect_chars INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			incorrect_words INTEGER NOT NULL,
			replay_log BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tests_created_at ON tests(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tests_mode ON tests(mode);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTest stores a finished test. A nil ID is replaced by a new UUID and
// a zero CreatedAt by the current time. The stored result is returned.
func (s *Store) InsertTest(ctx context.Context, r model.Result) (model.Result, error) {
	if err := r.Log.Check(); err != nil {
		return model.Result{}, err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	blob, err := replaylog.Compress(r.Log)
	if err != nil {
		return model.Result{}, err
	}
	quoteID := ""
	if r.QuoteID != uuid.Nil {
		quoteID = r.QuoteID.String()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (id, mode, words, quote_id, time_limit, word_limit, seconds_taken,
			correct_chars, incorrect_chars, correct_words, incorrect_words, replay_log, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(),
		string(r.Mode),
		r.Words,
		quoteID,
		r.TimeLimit,
		r.WordLimit,
		r.Score.SecondsTaken,
		r.Score.CorrectChars,
		r.Score.IncorrectChars,
		r.Score.CorrectWords,
		r.Score.IncorrectWords,
		blob,
		r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return model.Result{}, err
	}
	return r, nil
}

const selectColumns = `SELECT id, mode, words, quote_id, time_limit, word_limit, seconds_taken,
	correct_chars, incorrect_chars, correct_words, incorrect_words, replay_log, created_at
	FROM tests`

// GetTest returns the test with the given id.
func (s *Store) GetTest(ctx context.Context, id uuid.UUID) (model.Result, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id.String())
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, ErrNotFound
	}
	return r, err
}

// ListTests returns the newest tests matching any of the query filters.
// Filters for the same mode are merged: a zero limit or nil quote id matches
// the whole mode. No filters selects nothing. Tests whose replay log fails to
// decode are counted in Skipped instead of failing the page.
func (s *Store) ListTests(ctx context.Context, q model.PastTestsQuery) (model.PastTestsPage, error) {
	where, args, err := filterClause(q.Filters)
	if err != nil {
		return model.PastTestsPage{}, err
	}
	if where == "" {
		return model.PastTestsPage{}, nil
	}
	if q.Cursor != nil {
		op := "<"
		if q.Cursor.Direction == model.CursorAfter {
			op = ">"
		}
		where = fmt.Sprintf("(%s) AND created_at %s ?", where, op)
		args = append(args, q.Cursor.Time.UnixMilli())
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY created_at DESC LIMIT ?", selectColumns, where)
	args = append(args, PageSize+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.PastTestsPage{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var page model.PastTestsPage
	for rows.Next() {
		r, err := scanResult(rows)
		if errors.Is(err, ErrCorruptLog) {
			page.Skipped++
			continue
		}
		if err != nil {
			return model.PastTestsPage{}, err
		}
		page.Tests = append(page.Tests, r)
	}
	if err := rows.Err(); err != nil {
		return model.PastTestsPage{}, err
	}
	if len(page.Tests) > PageSize {
		page.Tests = page.Tests[:PageSize]
		page.HasMore = true
	}
	return page, nil
}

type modeFilter struct {
	any    bool
	values map[string]struct{}
}

func (f *modeFilter) add(value string) {
	if f.any {
		return
	}
	if value == "" {
		f.any = true
		f.values = nil
		return
	}
	if f.values == nil {
		f.values = map[string]struct{}{}
	}
	f.values[value] = struct{}{}
}

func (f *modeFilter) count() int {
	if f.any {
		return 1
	}
	return len(f.values)
}

func filterClause(filters []model.PastTestFilter) (string, []any, error) {
	byMode := map[model.Mode]*modeFilter{}
	for _, f := range filters {
		mf, ok := byMode[f.Mode]
		if !ok {
			mf = &modeFilter{}
			byMode[f.Mode] = mf
		}
		switch f.Mode {
		case model.ModeTimed, model.ModeWordLimit:
			value := ""
			if f.Limit != 0 {
				value = fmt.Sprint(f.Limit)
			}
			mf.add(value)
		case model.ModeQuote:
			value := ""
			if f.QuoteID != uuid.Nil {
				value = f.QuoteID.String()
			}
			mf.add(value)
		default:
			return "", nil, fmt.Errorf("unknown mode %q", f.Mode)
		}
	}
	total := 0
	for _, mf := range byMode {
		total += mf.count()
	}
	if total > MaxFilters {
		return "", nil, ErrTooManyFilters
	}

	var clauses []string
	var args []any
	for _, mode := range model.Modes {
		mf, ok := byMode[mode]
		if !ok {
			continue
		}
		clause := "mode = ?"
		args = append(args, string(mode))
		if !mf.any {
			column := "quote_id"
			switch mode {
			case model.ModeTimed:
				column = "time_limit"
			case model.ModeWordLimit:
				column = "word_limit"
			}
			placeholders := make([]string, 0, len(mf.values))
			for v := range mf.values {
				placeholders = append(placeholders, "?")
				args = append(args, v)
			}
			clause += fmt.Sprintf(" AND CAST(%s AS TEXT) IN (%s)", column, strings.Join(placeholders, ","))
		}
		clauses = append(clauses, "("+clause+")")
	}
	return strings.Join(clauses, " OR "), args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (model.Result, error) {
	var (
		r         model.Result
		id        string
		mode      string
		quoteID   string
		blob      []byte
		createdAt int64
	)
	err := row.Scan(&id, &mode, &r.Words, &quoteID, &r.TimeLimit, &r.WordLimit, &r.Score.SecondsTaken,
		&r.Score.CorrectChars, &r.Score.IncorrectChars, &r.Score.CorrectWords, &r.Score.IncorrectWords,
		&blob, &createdAt)
	if err != nil {
		return model.Result{}, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return model.Result{}, fmt.Errorf("test id %q: %w", id, err)
	}
	if quoteID != "" {
		if r.QuoteID, err = uuid.Parse(quoteID); err != nil {
			return model.Result{}, fmt.Errorf("quote id %q: %w", quoteID, err)
		}
	}
	if r.Log, err = replaylog.Decompress(blob); err != nil {
		return model.Result{}, fmt.Errorf("test %s: %w: %v", id, ErrCorruptLog, err)
	}
	r.Mode = model.Mode(mode)
	r.CreatedAt = time.UnixMilli(createdAt)
	return r, nil
}
