package sink

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/nao1215/fiisheet/internal/grid"
)

// Sheets writes to the tabs of one Google Sheets spreadsheet.
type Sheets struct {
	service       *sheets.Service
	spreadsheetID string
	clear         bool
	logger        *slog.Logger
}

type sheetsSettings struct {
	clientOptions []option.ClientOption
	clear         bool
	logger        *slog.Logger
}

// SheetsOption configures NewSheets.
type SheetsOption func(*sheetsSettings)

// WithCredentialsJSON authenticates with a service account key.
func WithCredentialsJSON(data []byte) SheetsOption {
	return func(s *sheetsSettings) {
		s.clientOptions = append(s.clientOptions,
			option.WithCredentialsJSON(data),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}
}

// WithClientOptions passes raw client options, for example an endpoint.
func WithClientOptions(opts ...option.ClientOption) SheetsOption {
	return func(s *sheetsSettings) {
		s.clientOptions = append(s.clientOptions, opts...)
	}
}

// WithClear clears the whole tab before every write.
func WithClear(clear bool) SheetsOption {
	return func(s *sheetsSettings) {
		s.clear = clear
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SheetsOption {
	return func(s *sheetsSettings) {
		s.logger = logger
	}
}

// NewSheets connects to the Sheets API for spreadsheetID.
func NewSheets(ctx context.Context, spreadsheetID string, opts ...SheetsOption) (*Sheets, error) {
	s := &sheetsSettings{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	service, err := sheets.NewService(ctx, s.clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Sheets{
		service:       service,
		spreadsheetID: spreadsheetID,
		clear:         s.clear,
		logger:        s.logger,
	}, nil
}

// Name returns "sheets".
func (s *Sheets) Name() string {
	return "sheets"
}

// Replace creates the tab when missing, clears it when configured, and
// writes g at A1 with RAW input so values are stored as sent.
func (s *Sheets) Replace(ctx context.Context, tab string, g grid.Grid) error {
	if tab == "" {
		return ErrEmptyTab
	}
	if err := s.ensureTab(ctx, tab); err != nil {
		return err
	}

	if s.clear {
		_, err := s.service.Spreadsheets.Values.
			Clear(s.spreadsheetID, grid.QuoteTab(tab), &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("clear tab %q: %w", tab, err)
		}
	}

	values := make([][]any, len(g))
	for i, row := range g {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	resp, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, grid.AnchorRange(tab), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write tab %q: %w", tab, err)
	}
	s.logger.Debug("sheet updated",
		"tab", tab,
		"range", resp.UpdatedRange,
		"cells", resp.UpdatedCells,
	)
	return nil
}

func (s *Sheets) ensureTab(ctx context.Context, tab string) error {
	doc, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %q: %w", tab, err)
	}
	s.logger.Debug("tab created", "tab", tab)
	return nil
}

// Close is a no-op; the HTTP client holds no exclusive resource.
func (s *Sheets) Close() error {
	return nil
}
