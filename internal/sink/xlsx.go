package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/fiisheet/internal/grid"
)

// defaultSheet is the sheet excelize puts into a new workbook.
const defaultSheet = "Sheet1"

// XLSX writes to the sheets of a local workbook. Each Replace opens,
// updates and saves the file, so concurrent jobs serialize on the file.
type XLSX struct {
	path  string
	clear bool
	mu    sync.Mutex
}

// NewXLSX returns a sink writing to the workbook at path.
func NewXLSX(path string, clear bool) *XLSX {
	return &XLSX{path: path, clear: clear}
}

// Name returns "xlsx".
func (x *XLSX) Name() string {
	return "xlsx"
}

// Replace writes g into the sheet named tab and saves the workbook.
func (x *XLSX) Replace(_ context.Context, tab string, g grid.Grid) error {
	if tab == "" {
		return ErrEmptyTab
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	f, created, err := x.open()
	if err != nil {
		return err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return fmt.Errorf("look up sheet %q: %w", tab, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(tab); err != nil {
			return fmt.Errorf("add sheet %q: %w", tab, err)
		}
		if created && tab != defaultSheet {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				return fmt.Errorf("remove default sheet: %w", err)
			}
		}
	}

	if x.clear {
		rows, err := f.GetRows(tab)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", tab, err)
		}
		for r := len(rows); r >= 1; r-- {
			if err := f.RemoveRow(tab, r); err != nil {
				return fmt.Errorf("clear sheet %q: %w", tab, err)
			}
		}
	}

	for i, row := range g {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(tab, grid.CellName(i+1, 1), &cells); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, tab, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0750); err != nil {
		return fmt.Errorf("create workbook directory: %w", err)
	}
	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Range reads the sheet named tab. Trailing empty cells are not returned.
func (x *XLSX) Range(_ context.Context, tab string) (grid.Grid, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", tab, err)
	}
	g := make(grid.Grid, len(rows))
	for i, row := range rows {
		g[i] = grid.Row(row)
	}
	return g, nil
}

// Sheets returns the sheet names of the workbook.
func (x *XLSX) Sheets() ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Close is a no-op; the workbook is closed after every write.
func (x *XLSX) Close() error {
	return nil
}

func (x *XLSX) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(x.path)
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("open workbook: %w", err)
	}
	return excelize.NewFile(), true, nil
}
