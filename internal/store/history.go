package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// ErrHistoryUnsupported is returned by history operations on backends that
// do not keep a query history.
var ErrHistoryUnsupported = errors.New("backend does not record query history")

// HistoryEntry is one applied query and the transitions it produced.
type HistoryEntry struct {
	Seq         int64                `json:"seq"`
	QueryID     string               `json:"query_id"`
	Query       string               `json:"query"`
	Transitions []doublet.Transition `json:"transitions"`
}

// HistoryBackend is implemented by backends that keep a query history.
type HistoryBackend interface {
	AppendHistory(ctx context.Context, entry HistoryEntry) (int64, error)
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// SupportsHistory reports whether the store's backend keeps a history.
func (s *Store) SupportsHistory() bool {
	_, ok := s.backend.(HistoryBackend)
	return ok
}

// AppendHistory records a query in the backend history and returns its
// sequence number.
func (s *Store) AppendHistory(ctx context.Context, queryID, query string, transitions []doublet.Transition) (int64, error) {
	hb, ok := s.backend.(HistoryBackend)
	if !ok {
		return 0, ErrHistoryUnsupported
	}
	seq, err := hb.AppendHistory(ctx, HistoryEntry{QueryID: queryID, Query: query, Transitions: transitions})
	if err != nil {
		return 0, doublet.StorageFailure("append history", err)
	}
	return seq, nil
}

// History returns the most recent limit entries, oldest first. A limit of
// zero or less returns everything.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	hb, ok := s.backend.(HistoryBackend)
	if !ok {
		return nil, ErrHistoryUnsupported
	}
	entries, err := hb.History(ctx, limit)
	if err != nil {
		return nil, doublet.StorageFailure("read history", err)
	}
	return entries, nil
}

// AppendHistory implements HistoryBackend.
func (b *SQLiteBackend) AppendHistory(ctx context.Context, entry HistoryEntry) (int64, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append history: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO queries (query_id, query) VALUES (?, ?)`, entry.QueryID, entry.Query)
	if err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}

	for i, t := range entry.Transitions {
		bi, bs, bt := nullableDoublet(t.Before)
		ai, as, at := nullableDoublet(t.After)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transitions
			(query_seq, position, before_index, before_source, before_target, after_index, after_source, after_target)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, seq, i, bi, bs, bt, ai, as, at)
		if err != nil {
			return 0, fmt.Errorf("append history transition %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append history: commit: %w", err)
	}
	return seq, nil
}

// History implements HistoryBackend.
func (b *SQLiteBackend) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `SELECT seq, query_id, query FROM queries ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Seq, &e.QueryID, &e.Query); err != nil {
			rows.Close()
			return nil, fmt.Errorf("read history: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// Oldest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	for i := range entries {
		ts, err := b.transitions(ctx, entries[i].Seq)
		if err != nil {
			return nil, err
		}
		entries[i].Transitions = ts
	}
	return entries, nil
}

func (b *SQLiteBackend) transitions(ctx context.Context, seq int64) ([]doublet.Transition, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT before_index, before_source, before_target, after_index, after_source, after_target
		FROM transitions
		WHERE query_seq = ?
		ORDER BY position
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("read transitions of query %d: %w", seq, err)
	}
	defer rows.Close()

	ts := []doublet.Transition{}
	for rows.Next() {
		var bi, bs, bt, ai, as, at sql.NullInt64
		if err := rows.Scan(&bi, &bs, &bt, &ai, &as, &at); err != nil {
			return nil, fmt.Errorf("read transitions of query %d: %w", seq, err)
		}
		ts = append(ts, doublet.Transition{
			Before: fromNullable(bi, bs, bt),
			After:  fromNullable(ai, as, at),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transitions of query %d: %w", seq, err)
	}
	return ts, nil
}

func nullableDoublet(d *doublet.Doublet) (any, any, any) {
	if d == nil {
		return nil, nil, nil
	}
	return d.Index, d.Source, d.Target
}

func fromNullable(index, source, target sql.NullInt64) *doublet.Doublet {
	if !index.Valid {
		return nil
	}
	d := doublet.New(uint32(index.Int64), uint32(source.Int64), uint32(target.Int64))
	return &d
}
