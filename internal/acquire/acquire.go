package acquire

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// Strategy produces a grid from one source.
//
// Acquire returns the rows in source order. A returned grid is not yet
// normalized; rows may differ in length.
type Strategy interface {
	// Acquire fetches the source and returns its rows.
	Acquire(ctx context.Context) (grid.Grid, error)

	// Name returns the strategy name for logging.
	Name() string
}

// HeaderProvider is implemented by strategies whose output has no header
// row of its own. The pipeline prepends Header to the acquired rows.
type HeaderProvider interface {
	Header() grid.Row
}

// factory holds the collaborators shared by the strategies New builds.
type factory struct {
	logger  *slog.Logger
	browser Browser
	client  *resty.Client
}

// Option configures the strategies built by New.
type Option func(*factory)

// WithLogger sets the logger used by the strategy and its HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithBrowser sets the browser used by the dom strategy and the
// localStorage token source. Defaults to headless Chrome.
func WithBrowser(browser Browser) Option {
	return func(f *factory) {
		f.browser = browser
	}
}

// WithHTTPClient sets the resty client used by the HTTP strategies.
// Defaults to a client built from the job's user agent and timeout.
func WithHTTPClient(client *resty.Client) Option {
	return func(f *factory) {
		f.client = client
	}
}

// New builds the strategy described by job. The job is expected to have
// its defaults applied (see config.JobConfig.WithDefaults).
func New(job config.JobConfig, opts ...Option) (Strategy, error) {
	f := &factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.client == nil {
		f.client = NewHTTPClient(
			WithUserAgent(job.UserAgent),
			WithTimeout(job.RequestTimeout),
			WithClientLogger(f.logger),
		)
	}
	if f.browser == nil && needsBrowser(job) {
		f.browser = NewChromeBrowser(
			WithHeadless(job.DOM.Headless == nil || *job.DOM.Headless),
			WithBrowserUserAgent(job.UserAgent),
			WithExecPath(job.ChromePath),
		)
	}

	token, err := f.token(job.Token)
	if err != nil {
		return nil, err
	}

	switch job.Strategy {
	case config.StrategyDOM:
		return NewDOMStrategy(job.URL, f.browser,
			WithDOMLogger(f.logger),
			WithNavigationTimeout(job.DOM.NavigationTimeout),
			WithTableTimeout(job.DOM.TableTimeout),
			WithInteractionTimeout(job.DOM.InteractionTimeout),
			WithDismiss(Candidates(job.DOM.DismissTexts, job.DOM.DismissSelectors)),
			WithTrigger(Candidates(job.DOM.TriggerTexts, job.DOM.TriggerSelectors)),
			WithSubmitForm(job.DOM.SubmitForm),
		), nil
	case config.StrategyAPI:
		return NewAPIStrategy(job.URL, job.API.Fields,
			WithAPIClient(f.client),
			WithAPILogger(f.logger),
			WithMethod(job.API.Method),
			WithBodyFormat(job.API.BodyFormat),
			WithPageSize(job.API.PageSize),
			WithMaxPages(job.API.MaxPages),
			WithCursorParams(job.API.OffsetParam, job.API.LengthParam),
			WithParams(job.API.Params),
			WithHeaders(job.API.Headers),
			WithResultField(job.API.ResultField),
			WithHeaderRow(job.API.Header),
			WithAPIToken(token),
		), nil
	case config.StrategyStatic:
		return NewStaticStrategy(job.URL,
			WithStaticClient(f.client),
			WithStaticLogger(f.logger),
			WithCharset(job.Charset),
		), nil
	case config.StrategyTicker:
		return NewTickerStrategy(job.URL, job.Ticker.Tickers, job.Ticker.Fields,
			WithTickerClient(f.client),
			WithTickerLogger(f.logger),
			WithTickerHeaders(job.Ticker.Headers),
			WithTickerHeaderRow(job.Ticker.Header),
			WithTickerToken(token),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, job.Strategy)
	}
}

func (f *factory) token(tc *config.TokenConfig) (*TokenHeader, error) {
	if tc == nil {
		return nil, nil
	}
	var source TokenSource
	switch tc.Source {
	case config.TokenLocalStorage:
		source = NewLocalStorageToken(f.browser, tc.URL, tc.Key,
			WithTokenLogger(f.logger),
			WithTokenTimeout(tc.Timeout),
		)
	case config.TokenMeta:
		source = NewMetaToken(f.client, tc.URL, tc.Key)
	default:
		return nil, fmt.Errorf("%w: token source %q", ErrUnknownStrategy, tc.Source)
	}
	return &TokenHeader{Source: source, Header: tc.Header, Prefix: tc.Prefix}, nil
}

func needsBrowser(job config.JobConfig) bool {
	if job.Strategy == config.StrategyDOM {
		return true
	}
	return job.Token != nil && job.Token.Source == config.TokenLocalStorage
}
