package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// Cursor is the pagination state of one run: the offset of the next page
// and the number of records requested per page.
type Cursor struct {
	Offset   int
	PageSize int
}

// Next returns the cursor of the following page.
func (c Cursor) Next() Cursor {
	return Cursor{Offset: c.Offset + c.PageSize, PageSize: c.PageSize}
}

// Advance folds one page into the accumulator. It reports done when the
// page is empty or shorter than the page size. The returned cursor points
// at the next page.
func Advance(acc []Record, page []Record, cur Cursor) ([]Record, Cursor, bool) {
	if len(page) == 0 {
		return acc, cur, true
	}
	acc = append(acc, page...)
	return acc, cur.Next(), len(page) < cur.PageSize
}

// APIStrategy pages through a JSON search endpoint and projects every
// record onto a fixed field list.
//
// Pages are requested strictly in sequence. A non-success status or a body
// that is not an object holding an array of objects fails the run.
type APIStrategy struct {
	url    string
	fields []string
	header grid.Row

	client *resty.Client
	logger *slog.Logger

	method      string
	bodyFormat  string
	pageSize    int
	maxPages    int
	offsetParam string
	lengthParam string
	resultField string
	params      map[string]any
	headers     map[string]string
	token       *TokenHeader
}

// APIOption configures an APIStrategy.
type APIOption func(*APIStrategy)

// WithAPIClient sets the resty client.
func WithAPIClient(client *resty.Client) APIOption {
	return func(s *APIStrategy) {
		s.client = client
	}
}

// WithAPILogger sets the logger.
func WithAPILogger(logger *slog.Logger) APIOption {
	return func(s *APIStrategy) {
		s.logger = logger
	}
}

// WithMethod sets the HTTP method. GET sends the parameters as a query
// string instead of a body.
func WithMethod(method string) APIOption {
	return func(s *APIStrategy) {
		if method != "" {
			s.method = strings.ToUpper(method)
		}
	}
}

// WithBodyFormat sets the request body encoding: form or json.
func WithBodyFormat(format string) APIOption {
	return func(s *APIStrategy) {
		if format != "" {
			s.bodyFormat = strings.ToLower(format)
		}
	}
}

// WithPageSize sets the number of records requested per page.
func WithPageSize(n int) APIOption {
	return func(s *APIStrategy) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxPages caps the number of page requests of one run.
func WithMaxPages(n int) APIOption {
	return func(s *APIStrategy) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithCursorParams names the offset and length parameters.
func WithCursorParams(offset, length string) APIOption {
	return func(s *APIStrategy) {
		if offset != "" {
			s.offsetParam = offset
		}
		if length != "" {
			s.lengthParam = length
		}
	}
}

// WithParams sets fixed filter and sort parameters sent with every page.
func WithParams(params map[string]any) APIOption {
	return func(s *APIStrategy) {
		s.params = params
	}
}

// WithHeaders sets headers sent with every page.
func WithHeaders(headers map[string]string) APIOption {
	return func(s *APIStrategy) {
		s.headers = headers
	}
}

// WithResultField names the JSON field holding the page records.
func WithResultField(field string) APIOption {
	return func(s *APIStrategy) {
		if field != "" {
			s.resultField = field
		}
	}
}

// WithHeaderRow sets the header row. It defaults to the field list.
func WithHeaderRow(header []string) APIOption {
	return func(s *APIStrategy) {
		if len(header) > 0 {
			s.header = grid.Row(header)
		}
	}
}

// WithAPIToken injects a token header resolved once before the first page.
func WithAPIToken(token *TokenHeader) APIOption {
	return func(s *APIStrategy) {
		s.token = token
	}
}

// NewAPIStrategy returns an APIStrategy for endpoint projecting fields.
func NewAPIStrategy(endpoint string, fields []string, opts ...APIOption) *APIStrategy {
	s := &APIStrategy{
		url:         endpoint,
		fields:      fields,
		header:      grid.Row(fields),
		method:      http.MethodPost,
		bodyFormat:  config.BodyForm,
		pageSize:    config.DefaultPageSize,
		maxPages:    config.DefaultMaxPages,
		offsetParam: config.DefaultOffsetParam,
		lengthParam: config.DefaultLengthParam,
		resultField: config.DefaultResultField,
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

// Name returns "api".
func (s *APIStrategy) Name() string {
	return config.StrategyAPI
}

// Header returns the header row prepended by the pipeline.
func (s *APIStrategy) Header() grid.Row {
	return s.header.Clone()
}

// Acquire requests pages until exhaustion and returns one row per record,
// in page order. Zero records is an empty grid, not an error.
func (s *APIStrategy) Acquire(ctx context.Context) (grid.Grid, error) {
	headers, err := s.requestHeaders(ctx)
	if err != nil {
		return nil, err
	}

	var (
		acc  []Record
		cur  = Cursor{Offset: 0, PageSize: s.pageSize}
		done bool
	)
	for requests := 0; !done; requests++ {
		if requests >= s.maxPages {
			s.logger.Warn("page limit reached, stopping pagination",
				"url", s.url,
				"max_pages", s.maxPages,
				"records", len(acc),
			)
			break
		}

		page, err := s.fetch(ctx, cur, headers)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("page fetched", "offset", cur.Offset, "records", len(page))

		acc, cur, done = Advance(acc, page, cur)
	}

	rows := make(grid.Grid, 0, len(acc))
	for _, rec := range acc {
		rows = append(rows, Project(rec, s.fields))
	}
	return rows, nil
}

func (s *APIStrategy) requestHeaders(ctx context.Context) (map[string]string, error) {
	headers := make(map[string]string, len(s.headers)+1)
	for k, v := range s.headers {
		headers[k] = v
	}
	if s.token != nil {
		if err := s.token.Apply(ctx, headers); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// fetch issues one page request and returns its records. A missing or null
// result field is an empty page.
func (s *APIStrategy) fetch(ctx context.Context, cur Cursor, headers map[string]string) ([]Record, error) {
	params := make(map[string]any, len(s.params)+2)
	for k, v := range s.params {
		params[k] = v
	}
	params[s.offsetParam] = cur.Offset
	params[s.lengthParam] = cur.PageSize

	req := s.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Accept", "application/json")

	switch {
	case s.method == http.MethodGet:
		req.SetQueryParamsFromValues(formValues(params))
	case s.bodyFormat == config.BodyJSON:
		req.SetHeader("Content-Type", "application/json").SetBody(params)
	default:
		req.SetFormDataFromValues(formValues(params))
	}

	resp, err := req.Execute(s.method, s.url)
	if err != nil {
		return nil, fmt.Errorf("request page at offset %d: %w", cur.Offset, err)
	}
	if !resp.IsSuccess() {
		return nil, &HTTPStatusError{Method: s.method, URL: s.url, StatusCode: resp.StatusCode()}
	}

	return decodePage(resp.Body(), s.resultField)
}

// decodePage extracts the records under field from a JSON object body.
func decodePage(body []byte, field string) ([]Record, error) {
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrUnexpectedShape)
	}

	raw, ok := obj[field]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is not an array", ErrUnexpectedShape, field)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: record %d of %q is not an object", ErrUnexpectedShape, i, field)
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeJSON decodes body keeping numbers in their textual form.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return payload, nil
}

func formValues(params map[string]any) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, FormatCell(v))
	}
	return values
}
