package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores entries in a panel_state table
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteBackend opens (or creates) the database at dbPath.
// ":memory:" gives a private in-memory database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	b := &SQLiteBackend{db: db, dbPath: dbPath}
	if err := b.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS panel_state (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		port TEXT NOT NULL,
		pathname TEXT NOT NULL,
		search TEXT NOT NULL,
		hash TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Put(ctx context.Context, id string, entry types.StateEntry) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO panel_state (id, mode, port, pathname, search, hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			port = excluded.port,
			pathname = excluded.pathname,
			search = excluded.search,
			hash = excluded.hash,
			updated_at = excluded.updated_at`,
		id, entry.Mode, entry.Port, entry.Pathname, entry.Search, entry.Hash, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, id string) (types.StateEntry, error) {
	var entry types.StateEntry
	err := b.db.QueryRowContext(ctx,
		`SELECT mode, port, pathname, search, hash FROM panel_state WHERE id = ?`, id,
	).Scan(&entry.Mode, &entry.Port, &entry.Pathname, &entry.Search, &entry.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StateEntry{}, ErrNotFound
	}
	if err != nil {
		return types.StateEntry{}, fmt.Errorf("failed to load state: %w", err)
	}
	return entry, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM panel_state WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) List(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id FROM panel_state ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list state: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan state id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection
func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
