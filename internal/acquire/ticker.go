package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// TickerPlaceholder is replaced by the ticker symbol in the URL template.
const TickerPlaceholder = "{ticker}"

// tickerField is filled with the symbol when a response lacks it.
const tickerField = "ticker"

// TickerStrategy looks up one JSON object per ticker symbol and projects
// each into a row, in ticker order.
//
// A ticker answered with a non-success status is logged and skipped. A
// malformed body fails the run.
type TickerStrategy struct {
	template string
	tickers  []string
	fields   []string
	header   grid.Row

	client  *resty.Client
	logger  *slog.Logger
	headers map[string]string
	token   *TokenHeader
}

// TickerOption configures a TickerStrategy.
type TickerOption func(*TickerStrategy)

// WithTickerClient sets the resty client.
func WithTickerClient(client *resty.Client) TickerOption {
	return func(s *TickerStrategy) {
		s.client = client
	}
}

// WithTickerLogger sets the logger.
func WithTickerLogger(logger *slog.Logger) TickerOption {
	return func(s *TickerStrategy) {
		s.logger = logger
	}
}

// WithTickerHeaders sets headers sent with every lookup.
func WithTickerHeaders(headers map[string]string) TickerOption {
	return func(s *TickerStrategy) {
		s.headers = headers
	}
}

// WithTickerHeaderRow sets the header row. It defaults to the field list.
func WithTickerHeaderRow(header []string) TickerOption {
	return func(s *TickerStrategy) {
		if len(header) > 0 {
			s.header = grid.Row(header)
		}
	}
}

// WithTickerToken injects a token header resolved once before the lookups.
func WithTickerToken(token *TokenHeader) TickerOption {
	return func(s *TickerStrategy) {
		s.token = token
	}
}

// NewTickerStrategy returns a TickerStrategy. template must contain
// TickerPlaceholder.
func NewTickerStrategy(template string, tickers, fields []string, opts ...TickerOption) *TickerStrategy {
	s := &TickerStrategy{
		template: template,
		tickers:  tickers,
		fields:   fields,
		header:   grid.Row(fields),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.client == nil {
		s.client = NewHTTPClient(WithClientLogger(s.logger))
	}
	return s
}

// Name returns "ticker".
func (s *TickerStrategy) Name() string {
	return config.StrategyTicker
}

// Header returns the header row prepended by the pipeline.
func (s *TickerStrategy) Header() grid.Row {
	return s.header.Clone()
}

// Acquire looks up every ticker in order. No successful lookup is an
// empty grid.
func (s *TickerStrategy) Acquire(ctx context.Context) (grid.Grid, error) {
	headers := make(map[string]string, len(s.headers)+1)
	for k, v := range s.headers {
		headers[k] = v
	}
	if s.token != nil {
		if err := s.token.Apply(ctx, headers); err != nil {
			return nil, err
		}
	}

	rows := make(grid.Grid, 0, len(s.tickers))
	for _, ticker := range s.tickers {
		rec, err := s.lookup(ctx, ticker, headers)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		rows = append(rows, Project(rec, s.fields))
	}
	return rows, nil
}

// lookup returns the record for ticker, or nil when the server answered
// with a non-success status.
func (s *TickerStrategy) lookup(ctx context.Context, ticker string, headers map[string]string) (Record, error) {
	endpoint := strings.ReplaceAll(s.template, TickerPlaceholder, url.PathEscape(ticker))

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Accept", "application/json").
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ticker, err)
	}
	if !resp.IsSuccess() {
		s.logger.Warn("ticker lookup failed, skipping",
			"ticker", ticker,
			"error", &HTTPStatusError{Method: http.MethodGet, URL: endpoint, StatusCode: resp.StatusCode()},
		)
		return nil, nil
	}

	payload, err := decodeJSON(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ticker, err)
	}
	rec, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w: response is not a JSON object", ticker, ErrUnexpectedShape)
	}
	if _, ok := rec[tickerField]; !ok {
		rec[tickerField] = ticker
	}
	return rec, nil
}
