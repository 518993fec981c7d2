package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// StaticStrategy fetches a server-rendered page and parses its first table
// with visible text. It needs no browser.
type StaticStrategy struct {
	url     string
	client  *resty.Client
	logger  *slog.Logger
	charset string
}

// StaticOption configures a StaticStrategy.
type StaticOption func(*StaticStrategy)

// WithStaticClient sets the resty client.
func WithStaticClient(client *resty.Client) StaticOption {
	return func(s *StaticStrategy) {
		s.client = client
	}
}

// WithStaticLogger sets the logger.
func WithStaticLogger(logger *slog.Logger) StaticOption {
	return func(s *StaticStrategy) {
		s.logger = logger
	}
}

// WithCharset forces the page encoding, for servers that send a wrong or
// missing charset. Names follow the WHATWG encoding labels ("iso-8859-1").
func WithCharset(name string) StaticOption {
	return func(s *StaticStrategy) {
		s.charset = name
	}
}

// NewStaticStrategy returns a StaticStrategy for url.
func NewStaticStrategy(url string, opts ...StaticOption) *StaticStrategy {
	s := &StaticStrategy{url: url}
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

// Name returns "static".
func (s *StaticStrategy) Name() string {
	return config.StrategyStatic
}

// Acquire fetches the page and parses the first non-empty table.
func (s *StaticStrategy) Acquire(ctx context.Context) (grid.Grid, error) {
	doc, content, err := fetchDocument(ctx, s.client, s.url, s.charset)
	if err != nil {
		return nil, err
	}

	fragment, err := firstTable(doc)
	if err != nil {
		return nil, err
	}
	if fragment == "" {
		return nil, NewEmptyError(ErrTableNotFound, content)
	}

	g := grid.ParseTable(fragment)
	if g.IsEmpty() {
		return nil, NewEmptyError(ErrNoRows, fragment)
	}
	s.logger.Debug("table extracted", "url", s.url, "rows", g.Len())
	return g, nil
}

// firstTable returns the outer HTML of the first table whose text is not
// blank, or "" when there is none.
func firstTable(doc *goquery.Document) (string, error) {
	var (
		fragment string
		err      error
	)
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) == "" {
			return true
		}
		fragment, err = goquery.OuterHtml(sel)
		return false
	})
	if err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return fragment, nil
}

// fetchDocument GETs url and parses the body as UTF-8 HTML. It also returns
// the decoded body text for error snippets.
func fetchDocument(ctx context.Context, client *resty.Client, url, forced string) (*goquery.Document, string, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, "", &HTTPStatusError{Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode()}
	}

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"), forced)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, body, nil
}

// decodeBody converts body to UTF-8. The encoding is the forced name when
// given, otherwise it is sniffed from the Content-Type header and the
// document's meta tags.
func decodeBody(body []byte, contentType, forced string) (string, error) {
	var enc encoding.Encoding
	if forced != "" {
		e, err := htmlindex.Get(forced)
		if err != nil {
			return "", fmt.Errorf("unknown charset %q: %w", forced, err)
		}
		enc = e
	} else {
		enc, _, _ = charset.DetermineEncoding(body, contentType)
	}
	if enc == nil || enc == encoding.Nop {
		return string(body), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
