// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const selectColumns = `SELECT id, query, params, plan, outcomes, reply, success, created_at FROM requests`

// Recent returns up to n entries, newest first. n <= 0 uses 20.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e            Entry
		paramsJSON   sql.NullString
		planJSON     sql.NullString
		outcomesJSON sql.NullString
		reply        sql.NullString
		created      string
	)
	if err := sc.Scan(&e.ID, &e.Query, &paramsJSON, &planJSON, &outcomesJSON, &reply, &e.Success, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning row: %w", err)
	}

	e.Reply = reply.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		e.CreatedAt = t
	}
	if paramsJSON.Valid {
		if err := json.Unmarshal([]byte(paramsJSON.String), &e.Params); err != nil {
			return Entry{}, fmt.Errorf("decoding params of %s: %w", e.ID, err)
		}
	}
	if planJSON.Valid {
		if err := json.Unmarshal([]byte(planJSON.String), &e.Plan); err != nil {
			return Entry{}, fmt.Errorf("decoding plan of %s: %w", e.ID, err)
		}
	}
	if outcomesJSON.Valid {
		if err := json.Unmarshal([]byte(outcomesJSON.String), &e.Outcomes); err != nil {
			return Entry{}, fmt.Errorf("decoding outcomes of %s: %w", e.ID, err)
		}
	}
	return e, nil
}
