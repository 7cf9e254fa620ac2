package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/link-foundation/link-cli/internal/doublet"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - doublets, names, queries, transitions
const currentSchemaVersion = 1

// SQLiteBackend stores doublets and names in SQLite tables and keeps an
// append-only history of applied queries.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and checks the version.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Kind implements Backend.
func (b *SQLiteBackend) Kind() Kind {
	return KindSQLite
}

// DB returns the underlying sql.DB for direct queries.
func (b *SQLiteBackend) DB() *sql.DB {
	return b.db
}

// Load reads every doublet and name.
func (b *SQLiteBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Names: map[uint32]string{}}

	rows, err := b.db.QueryContext(ctx, `SELECT id, source, target FROM doublets ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load doublets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d doublet.Doublet
		if err := rows.Scan(&d.Index, &d.Source, &d.Target); err != nil {
			return snap, fmt.Errorf("load doublets: %w", err)
		}
		snap.Doublets = append(snap.Doublets, d)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load doublets: %w", err)
	}

	nameRows, err := b.db.QueryContext(ctx, `SELECT id, name FROM names ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load names: %w", err)
	}
	defer nameRows.Close()

	for nameRows.Next() {
		var index uint32
		var name string
		if err := nameRows.Scan(&index, &name); err != nil {
			return snap, fmt.Errorf("load names: %w", err)
		}
		snap.Names[index] = name
	}
	if err := nameRows.Err(); err != nil {
		return snap, fmt.Errorf("load names: %w", err)
	}

	return snap, nil
}

// Save replaces the doublets and names tables in one transaction. The query
// history is left untouched.
func (b *SQLiteBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM names`); err != nil {
		return fmt.Errorf("save: clear names: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM doublets`); err != nil {
		return fmt.Errorf("save: clear doublets: %w", err)
	}

	insertDoublet, err := tx.PrepareContext(ctx, `INSERT INTO doublets (id, source, target) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save: prepare: %w", err)
	}
	defer insertDoublet.Close()

	for _, d := range sortedDoublets(snap.Doublets) {
		if _, err := insertDoublet.ExecContext(ctx, d.Index, d.Source, d.Target); err != nil {
			return fmt.Errorf("save doublet %d: %w", d.Index, err)
		}
	}

	insertName, err := tx.PrepareContext(ctx, `INSERT INTO names (id, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("save: prepare: %w", err)
	}
	defer insertName.Close()

	for _, index := range sortedKeys(snap.Names) {
		if _, err := insertName.ExecContext(ctx, index, snap.Names[index]); err != nil {
			return fmt.Errorf("save name of %d: %w", index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (b *SQLiteBackend) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := b.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
