package history

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/starford/vaultdigest/internal/apperr"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultListLimit caps ListRuns when no positive limit is given.
const DefaultListLimit = 20

// Run is one recorded generation.
type Run struct {
	ID          string        `json:"id"`
	Destination string        `json:"destination"`
	Status      string        `json:"status"`
	GeneratedAt time.Time     `json:"generated_at"`
	Documents   int           `json:"documents"`
	Skipped     int           `json:"skipped"`
	Bytes       int           `json:"bytes"`
	Checksum    string        `json:"checksum,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// Recorder is the subset of DB used by the digest service.
type Recorder interface {
	RecordRun(run *Run, paths []string) error
	ListRuns(limit int) ([]Run, error)
	GetRun(id string) (*Run, error)
	LastCompleted(destination string) (*Run, error)
	RunDocuments(id string) ([]string, error)
}

var _ Recorder = (*DB)(nil)

// NewID returns a fresh, time-ordered run id.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// RecordRun stores run and its ordered document list in one transaction.
// An empty run.ID is filled in from run.GeneratedAt.
func (db *DB) RecordRun(run *Run, paths []string) error {
	if run.ID == "" {
		run.ID = NewID(run.GeneratedAt)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs (id, destination, status, generated_at, documents, skipped, bytes, checksum, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Destination, run.Status, run.GeneratedAt.UTC(), run.Documents, run.Skipped,
		run.Bytes, run.Checksum, run.Duration.Milliseconds(), run.Error)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: run %s", apperr.ErrAlreadyExists, run.ID)
		}
		return fmt.Errorf("history: insert run: %w", err)
	}

	if len(paths) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO run_documents (run_id, position, path) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("history: prepare document insert: %w", err)
		}
		defer stmt.Close()
		for i, p := range paths {
			if _, err := stmt.Exec(run.ID, i, p); err != nil {
				return fmt.Errorf("history: insert document: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.conn.Query(`
		SELECT id, destination, status, generated_at, documents, skipped, bytes, checksum, duration_ms, error
		FROM runs ORDER BY generated_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRun returns one run by id.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, destination, status, generated_at, documents, skipped, bytes, checksum, duration_ms, error
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", apperr.ErrNotFound, id)
	}
	return r, err
}

// LastCompleted returns the newest completed run written to destination.
func (db *DB) LastCompleted(destination string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, destination, status, generated_at, documents, skipped, bytes, checksum, duration_ms, error
		FROM runs WHERE destination = ? AND status = ?
		ORDER BY generated_at DESC, id DESC LIMIT 1
	`, destination, StatusCompleted)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no completed run for %s", apperr.ErrNotFound, destination)
	}
	return r, err
}

// RunDocuments returns the document paths of a run in composite order.
func (db *DB) RunDocuments(id string) ([]string, error) {
	if _, err := db.GetRun(id); err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`SELECT path FROM run_documents WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("history: run documents: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r          Run
		durationMS int64
	)
	err := s.Scan(&r.ID, &r.Destination, &r.Status, &r.GeneratedAt, &r.Documents, &r.Skipped,
		&r.Bytes, &r.Checksum, &durationMS, &r.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("history: scan run: %w", err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}
