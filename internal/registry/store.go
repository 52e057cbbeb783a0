package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
)

// Registration is one persisted canonical identity with its alias set, in
// the order the store replays them.
type Registration struct {
	Canonical string
	Aliases   []string
}

// Store persists alias registrations so auto-learning survives restarts.
type Store interface {
	// SaveRegistration writes an explicit registration through to disk.
	SaveRegistration(ctx context.Context, canonical string, aliases []string) error

	// SaveLearnedAlias writes an auto-learned alias through to disk.
	SaveLearnedAlias(ctx context.Context, alias, canonical string) error

	// LoadAll returns every registration in insertion order.
	LoadAll(ctx context.Context) ([]Registration, error)

	// Close releases the store.
	Close() error
}

// SQLiteStore implements Store on a SQLite database.
// WAL mode plus a busy timeout lets the bot process and the operator CLI
// share one database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

const aliasSchema = `
CREATE TABLE IF NOT EXISTS canonicals (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);
CREATE TABLE IF NOT EXISTS aliases (
	alias     TEXT PRIMARY KEY,
	canonical TEXT NOT NULL,
	learned   INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLiteStore opens (or creates) the alias database at path.
// An empty path opens an in-memory database for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeAliasStore,
				fmt.Sprintf("cannot create alias store directory for %s", path), err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}

	// Single connection: SQLite serializes writes anyway, and it keeps the
	// per-connection busy_timeout pragma in effect for every statement.
	db.SetMaxOpenConns(1)

	// Pragmas must be executed as statements: the modernc.org/sqlite driver
	// ignores mattn-style DSN parameters. WAL is skipped for the in-memory
	// database, which cannot leave its "memory" journal mode.
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, apperrors.New(apperrors.ErrCodeAliasStore, "cannot set pragma", err)
		}
	}

	if _, err := db.Exec(aliasSchema); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.ErrCodeAliasStore, "cannot create alias schema", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// SaveRegistration implements Store.
func (s *SQLiteStore) SaveRegistration(ctx context.Context, canonical string, aliases []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO canonicals (name) VALUES (?)`, canonical); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	for _, alias := range aliases {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO aliases (alias, canonical, learned) VALUES (?, ?, 0)`,
			alias, canonical); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	return nil
}

// SaveLearnedAlias implements Store.
func (s *SQLiteStore) SaveLearnedAlias(ctx context.Context, alias, canonical string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO aliases (alias, canonical, learned) VALUES (?, ?, 1)`,
		alias, canonical); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	return nil
}

// LoadAll implements Store. Canonical names come back in registration order,
// each with its aliases in insertion order, learned ones included.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]Registration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM canonicals ORDER BY id`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	defer func() { _ = rows.Close() }()

	var regs []Registration
	pos := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
		}
		pos[name] = len(regs)
		regs = append(regs, Registration{Canonical: name})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}

	aliasRows, err := s.db.QueryContext(ctx,
		`SELECT alias, canonical FROM aliases ORDER BY rowid`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}
	defer func() { _ = aliasRows.Close() }()

	for aliasRows.Next() {
		var alias, canonical string
		if err := aliasRows.Scan(&alias, &canonical); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
		}
		i, ok := pos[canonical]
		if !ok {
			// Alias row without a canonical row; tolerate and register anyway.
			pos[canonical] = len(regs)
			regs = append(regs, Registration{Canonical: canonical})
			i = pos[canonical]
		}
		regs[i].Aliases = append(regs[i].Aliases, alias)
	}
	if err := aliasRows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeAliasStore, err)
	}

	return regs, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
