package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TokenSource obtains a request token, such as an anti-forgery token or an
// API bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenHeader injects the token of Source into Header, prefixed by Prefix.
type TokenHeader struct {
	Source TokenSource
	Header string
	Prefix string
}

// Apply resolves the token and stores it in headers.
func (t *TokenHeader) Apply(ctx context.Context, headers map[string]string) error {
	token, err := t.Source.Token(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}
	header := t.Header
	if header == "" {
		header = "Authorization"
	}
	headers[header] = t.Prefix + token
	return nil
}

// LocalStorageToken reads a localStorage entry after the page's scripts
// have run.
type LocalStorageToken struct {
	browser Browser
	url     string
	key     string
	timeout time.Duration
	logger  *slog.Logger
}

// TokenOption configures a LocalStorageToken.
type TokenOption func(*LocalStorageToken)

// WithTokenLogger sets the logger.
func WithTokenLogger(logger *slog.Logger) TokenOption {
	return func(t *LocalStorageToken) {
		t.logger = logger
	}
}

// WithTokenTimeout bounds the page load.
func WithTokenTimeout(d time.Duration) TokenOption {
	return func(t *LocalStorageToken) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewLocalStorageToken returns a TokenSource reading key on url.
func NewLocalStorageToken(browser Browser, url, key string, opts ...TokenOption) *LocalStorageToken {
	t := &LocalStorageToken{
		browser: browser,
		url:     url,
		key:     key,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Token opens the page, waits for the network to settle and reads the key.
func (t *LocalStorageToken) Token(ctx context.Context) (string, error) {
	page, err := t.browser.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			t.logger.Debug("close browser", "error", cerr)
		}
	}()

	nctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := page.Navigate(nctx, t.url); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", fmt.Errorf("navigate to %s: %w", t.url, err)
		}
		t.logger.Debug("token page load timed out", "url", t.url)
	}
	if err := page.WaitSettled(nctx); err != nil {
		t.logger.Debug("network did not settle on token page", "url", t.url, "error", err)
	}

	value, err := page.LocalStorage(ctx, t.key)
	if err != nil {
		return "", fmt.Errorf("read localStorage %q: %w", t.key, err)
	}
	if value = strings.TrimSpace(value); value == "" {
		return "", fmt.Errorf("%w: localStorage %q on %s", ErrTokenNotFound, t.key, t.url)
	}
	return value, nil
}

// MetaToken reads the content of a named meta tag, typically csrf-token.
// It shares the cookie jar of client, so the token matches the session
// cookies sent by later requests through the same client.
type MetaToken struct {
	client *resty.Client
	url    string
	name   string
}

// NewMetaToken returns a TokenSource reading meta[name=name] on url.
func NewMetaToken(client *resty.Client, url, name string) *MetaToken {
	if name == "" {
		name = "csrf-token"
	}
	return &MetaToken{client: client, url: url, name: name}
}

// Token fetches the page and returns the meta tag content.
func (t *MetaToken) Token(ctx context.Context) (string, error) {
	doc, _, err := fetchDocument(ctx, t.client, t.url, "")
	if err != nil {
		return "", err
	}
	content, _ := doc.Find(fmt.Sprintf("meta[name=%q]", t.name)).First().Attr("content")
	if content = strings.TrimSpace(content); content == "" {
		return "", fmt.Errorf("%w: meta %q on %s", ErrTokenNotFound, t.name, t.url)
	}
	return content, nil
}
