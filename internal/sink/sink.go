package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// ErrEmptyTab is returned when a write names no tab.
var ErrEmptyTab = errors.New("tab name is empty")

// Sink is a tabular store receiving whole-tab writes.
type Sink interface {
	// Replace writes g into tab anchored at A1, creating the tab when
	// missing. The grid must already be rectangular.
	Replace(ctx context.Context, tab string, g grid.Grid) error

	// Name returns the store type for logging.
	Name() string

	// Close releases the store.
	Close() error
}

// Reader is implemented by local stores that can read a tab back.
type Reader interface {
	Range(ctx context.Context, tab string) (grid.Grid, error)
}

// New opens the sink described by cfg.
func New(ctx context.Context, cfg config.SinkConfig, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.SinkType() {
	case config.SinkSheets:
		creds, err := cfg.Credentials()
		if err != nil {
			return nil, err
		}
		return NewSheets(ctx, cfg.SpreadsheetID,
			WithCredentialsJSON(creds),
			WithClear(cfg.Clear),
			WithLogger(logger),
		)
	case config.SinkXLSX:
		return NewXLSX(cfg.ResolvedPath(), cfg.Clear), nil
	case config.SinkSQLite:
		return NewSQLite(cfg.ResolvedPath(), cfg.Clear)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidSinkType, cfg.Type)
	}
}
