// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a log of answered requests in SQLite so past
// questions, plans, and tool outcomes can be listed and inspected.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultLimit = 20
)

// ErrNotFound is returned by Get for an unknown request ID.
var ErrNotFound = errors.New("request not found")

// Entry is one recorded request.
type Entry struct {
	ID        string                   `json:"id" yaml:"id"`
	Query     string                   `json:"query" yaml:"query"`
	Params    map[string]any           `json:"params,omitempty" yaml:"params,omitempty"`
	Plan      *types.ExecutionPlan     `json:"plan,omitempty" yaml:"plan,omitempty"`
	Outcomes  []types.ExecutionOutcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Reply     string                   `json:"reply" yaml:"reply"`
	Success   bool                     `json:"success" yaml:"success"`
	CreatedAt time.Time                `json:"created_at" yaml:"created_at"`
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates dir/history.db.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("history directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS requests (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			params TEXT,
			plan TEXT,
			outcomes TEXT,
			reply TEXT,
			success INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores reply. Outcome payloads are dropped; the messages are kept.
func (s *Store) Record(ctx context.Context, reply *types.Reply) error {
	if reply == nil || reply.RequestID == "" {
		return fmt.Errorf("reply has no request ID")
	}

	var params map[string]any
	if reply.Extracted != nil {
		params = reply.Extracted.Parameters
	}
	outcomes := make([]types.ExecutionOutcome, len(reply.Outcomes))
	for i, o := range reply.Outcomes {
		o.Data = nil
		outcomes[i] = o
	}

	paramsJSON, err := marshalNullable(params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	planJSON, err := marshalNullable(reply.Plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	outcomesJSON, err := marshalNullable(outcomes)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}

	created := reply.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO requests (id, query, params, plan, outcomes, reply, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, params=excluded.params, plan=excluded.plan,
			outcomes=excluded.outcomes, reply=excluded.reply,
			success=excluded.success, created_at=excluded.created_at`,
		reply.RequestID, reply.Query, paramsJSON, planJSON, outcomesJSON,
		reply.Text, reply.Success, created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting request %s: %w", reply.RequestID, err)
	}
	return nil
}

func marshalNullable(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(data) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
