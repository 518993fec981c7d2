package acquire

import (
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// clientSettings holds the settings applied by NewHTTPClient.
type clientSettings struct {
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// ClientOption configures NewHTTPClient.
type ClientOption func(*clientSettings)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(s *clientSettings) {
		s.userAgent = ua
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(s *clientSettings) {
		s.timeout = d
	}
}

// WithClientLogger sets the logger receiving the request trace.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(s *clientSettings) {
		s.logger = logger
	}
}

// NewHTTPClient returns a resty client with a cookie jar, the desktop user
// agent and debug-level request logging. Retries are disabled.
func NewHTTPClient(opts ...ClientOption) *resty.Client {
	s := &clientSettings{
		timeout: 60 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	client := resty.New().
		SetTimeout(s.timeout).
		SetRetryCount(0)
	if s.userAgent != "" {
		client.SetHeader("User-Agent", s.userAgent)
	}

	logger := s.logger
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("http request", "method", req.Method, "url", req.URL, "headers", req.Header)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.Debug("http response",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"duration", res.Time(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		logger.Debug("http error", "method", req.Method, "url", req.URL, "error", err)
	})

	return client
}
