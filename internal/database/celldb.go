package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/fiisheet/internal/grid"
)

// ErrTabNotFound is returned by Range for a tab that was never written.
var ErrTabNotFound = errors.New("tab not found")

// CellDB stores tab contents cell by cell in SQLite.
type CellDB struct {
	db   *sql.DB
	path string
}

// Options configures CellDB behavior.
type Options struct {
	// CreateIfNotExists creates the file and its directory when missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates missing files and enables WAL.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CellDB at dbPath.
// Without CreateIfNotExists a missing file is an error.
func Open(dbPath string, opts Options) (*CellDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the open mode as a URI parameter:
	// rw refuses to create a missing file, rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CellDB{
		db:   db,
		path: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CellDB) Path() string {
	return cdb.path
}

// Close releases the connection.
func (cdb *CellDB) Close() error {
	return cdb.db.Close()
}

// createTables applies the schema idempotently.
func (cdb *CellDB) createTables() error {
	schema := `
	-- Tabs are the named sheets of the store
	CREATE TABLE IF NOT EXISTS tabs (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Cells use 1-based row and column numbers, as A1 notation does
	CREATE TABLE IF NOT EXISTS cells (
		tab TEXT NOT NULL REFERENCES tabs(name),
		row INTEGER NOT NULL,
		col INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (tab, row, col)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// EnsureTab creates the tab when it does not exist yet.
func (cdb *CellDB) EnsureTab(ctx context.Context, tab string) error {
	_, err := cdb.db.ExecContext(ctx, `INSERT INTO tabs (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, tab)
	if err != nil {
		return fmt.Errorf("failed to create tab %q: %w", tab, err)
	}
	return nil
}

// Tabs returns the tab names in creation order.
func (cdb *CellDB) Tabs(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT name FROM tabs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tab: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Replace writes g into tab anchored at row 1, column 1, in a single
// transaction. With clear set, every existing cell of the tab is removed
// first; otherwise cells outside g keep their values. Other tabs are never
// touched.
func (cdb *CellDB) Replace(ctx context.Context, tab string, g grid.Grid, clear bool) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `INSERT INTO tabs (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, tab); err != nil {
		return fmt.Errorf("failed to create tab %q: %w", tab, err)
	}
	if clear {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE tab = ?`, tab); err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", tab, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO cells (tab, row, col, value) VALUES (?, ?, ?, ?)
	ON CONFLICT(tab, row, col) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cell upsert: %w", err)
	}
	defer stmt.Close()

	for r, row := range g {
		for c, value := range row {
			if _, err := stmt.ExecContext(ctx, tab, r+1, c+1, value); err != nil {
				return fmt.Errorf("failed to write %s: %w", grid.CellName(r+1, c+1), err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tabs SET updated_at = CURRENT_TIMESTAMP WHERE name = ?`, tab); err != nil {
		return fmt.Errorf("failed to touch tab %q: %w", tab, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Range reads tab back as a grid spanning its used rows and columns.
// Cells never written read as empty strings.
func (cdb *CellDB) Range(ctx context.Context, tab string) (grid.Grid, error) {
	var exists int
	err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tabs WHERE name = ?`, tab).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tab %q: %w", tab, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTabNotFound, tab)
	}

	var maxRow, maxCol int
	err = cdb.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row), 0), COALESCE(MAX(col), 0) FROM cells WHERE tab = ?`, tab,
	).Scan(&maxRow, &maxCol)
	if err != nil {
		return nil, fmt.Errorf("failed to size tab %q: %w", tab, err)
	}

	g := make(grid.Grid, maxRow)
	for i := range g {
		g[i] = make(grid.Row, maxCol)
	}

	rows, err := cdb.db.QueryContext(ctx, `SELECT row, col, value FROM cells WHERE tab = ?`, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %q: %w", tab, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r, c int
		var value string
		if err := rows.Scan(&r, &c, &value); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		g[r-1][c-1] = value
	}
	return g, rows.Err()
}
