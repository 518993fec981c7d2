package sink

import (
	"context"

	"github.com/nao1215/fiisheet/internal/database"
	"github.com/nao1215/fiisheet/internal/grid"
)

// SQLite writes to the tabs of a local cell store.
type SQLite struct {
	db    *database.CellDB
	clear bool
}

// NewSQLite opens or creates the cell store at path.
func NewSQLite(path string, clear bool) (*SQLite, error) {
	db, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db, clear: clear}, nil
}

// Name returns "sqlite".
func (s *SQLite) Name() string {
	return "sqlite"
}

// Replace writes g into tab in one transaction.
func (s *SQLite) Replace(ctx context.Context, tab string, g grid.Grid) error {
	if tab == "" {
		return ErrEmptyTab
	}
	return s.db.Replace(ctx, tab, g, s.clear)
}

// Range reads tab back.
func (s *SQLite) Range(ctx context.Context, tab string) (grid.Grid, error) {
	return s.db.Range(ctx, tab)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
