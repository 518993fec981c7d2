package config

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// Strategy names.
const (
	StrategyDOM    = "dom"
	StrategyAPI    = "api"
	StrategyStatic = "static"
	StrategyTicker = "ticker"
)

// Body formats for the api strategy.
const (
	BodyForm = "form"
	BodyJSON = "json"
)

// Token sources.
const (
	TokenLocalStorage = "localStorage"
	TokenMeta         = "meta"
)

// Default candidate lists for the best-effort interaction passes.
var (
	// DefaultDismissTexts are button labels of cookie and consent banners.
	DefaultDismissTexts = []string{"Aceitar", "Aceito", "Accept", "Entendi", "Got it", "Fechar", "Close"}

	// DefaultDismissSelectors are CSS selectors of common consent widgets.
	DefaultDismissSelectors = []string{
		"#onetrust-accept-btn-handler",
		"button.cookie-accept",
		".cc-dismiss",
		"#lgpd-accept",
	}

	// DefaultTriggerTexts are labels of buttons that populate the listing.
	DefaultTriggerTexts = []string{"Filtrar", "Gerar", "Buscar", "Pesquisar", "Aplicar filtros"}
)

// JobConfig describes one acquisition and its destination tab.
type JobConfig struct {
	// Strategy is dom, api, static or ticker.
	Strategy string `yaml:"strategy"`

	// URL is the listing page (dom, static) or the search endpoint (api).
	// For the ticker strategy it is a template containing "{ticker}".
	URL string `yaml:"url"`

	// Tab is the destination tab name.
	Tab string `yaml:"tab"`

	// UserAgent overrides the default user agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// RequestTimeout overrides the default HTTP request timeout.
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`

	// ChromePath overrides the Chrome binary of the file defaults.
	ChromePath string `yaml:"chromePath,omitempty"`

	// Charset forces the page encoding of the static strategy.
	Charset string `yaml:"charset,omitempty"`

	// DOM configures the headless browser strategy.
	DOM DOMConfig `yaml:"dom,omitempty"`

	// API configures the paginated search strategy.
	API APIConfig `yaml:"api,omitempty"`

	// Ticker configures the per-ticker lookup strategy.
	Ticker TickerConfig `yaml:"ticker,omitempty"`

	// Token obtains a token injected into a request header (api, ticker).
	Token *TokenConfig `yaml:"token,omitempty"`
}

// DOMConfig configures the headless browser strategy.
type DOMConfig struct {
	// Headless overrides the default headless setting.
	Headless *bool `yaml:"headless,omitempty"`

	// NavigationTimeout bounds the initial page load.
	NavigationTimeout time.Duration `yaml:"navigationTimeout,omitempty"`

	// TableTimeout bounds the wait for a table element.
	TableTimeout time.Duration `yaml:"tableTimeout,omitempty"`

	// InteractionTimeout bounds each click and network settle.
	InteractionTimeout time.Duration `yaml:"interactionTimeout,omitempty"`

	// DismissTexts and DismissSelectors identify banner close buttons.
	DismissTexts     []string `yaml:"dismissTexts,omitempty"`
	DismissSelectors []string `yaml:"dismissSelectors,omitempty"`

	// TriggerTexts and TriggerSelectors identify search or filter buttons.
	TriggerTexts     []string `yaml:"triggerTexts,omitempty"`
	TriggerSelectors []string `yaml:"triggerSelectors,omitempty"`

	// SubmitForm submits the first form when no trigger button exists.
	SubmitForm bool `yaml:"submitForm,omitempty"`
}

// APIConfig configures the paginated search strategy.
type APIConfig struct {
	// Method is the HTTP method. Defaults to POST.
	Method string `yaml:"method,omitempty"`

	// BodyFormat is form or json. Defaults to form.
	BodyFormat string `yaml:"bodyFormat,omitempty"`

	// PageSize is the number of records requested per page.
	PageSize int `yaml:"pageSize,omitempty"`

	// MaxPages caps the number of requests.
	MaxPages int `yaml:"maxPages,omitempty"`

	// OffsetParam and LengthParam name the pagination parameters.
	OffsetParam string `yaml:"offsetParam,omitempty"`
	LengthParam string `yaml:"lengthParam,omitempty"`

	// Params are fixed filter and sort parameters sent with every page.
	Params map[string]any `yaml:"params,omitempty"`

	// Headers are sent with every page, for example X-Requested-With.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ResultField is the JSON field holding the page records.
	ResultField string `yaml:"resultField,omitempty"`

	// Fields is the ordered projection from records to row cells.
	Fields []string `yaml:"fields"`

	// Header is the header row. Defaults to Fields.
	Header []string `yaml:"header,omitempty"`
}

// TickerConfig configures the per-ticker lookup strategy.
type TickerConfig struct {
	// Tickers are looked up in order; each yields at most one row.
	Tickers []string `yaml:"tickers"`

	// Headers are sent with every lookup.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Fields is the ordered projection from the response object to cells.
	Fields []string `yaml:"fields"`

	// Header is the header row. Defaults to Fields.
	Header []string `yaml:"header,omitempty"`
}

// TokenConfig describes where a request token comes from.
type TokenConfig struct {
	// Source is localStorage or meta.
	Source string `yaml:"source"`

	// URL is the page the token is read from.
	URL string `yaml:"url"`

	// Key is the localStorage key or the meta tag name.
	Key string `yaml:"key"`

	// Header is the request header receiving the token.
	Header string `yaml:"header"`

	// Prefix is prepended to the token, for example "Bearer ".
	Prefix string `yaml:"prefix,omitempty"`

	// Timeout bounds the page load of the localStorage source.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// WithDefaults returns a copy of the job with unset values filled from the
// file defaults and the package defaults.
func (j JobConfig) WithDefaults(d Defaults) JobConfig {
	j.Strategy = strings.ToLower(j.Strategy)
	if j.UserAgent == "" {
		j.UserAgent = d.UserAgent
	}
	if j.UserAgent == "" {
		j.UserAgent = DefaultUserAgent
	}
	if j.RequestTimeout == 0 {
		j.RequestTimeout = d.RequestTimeout
	}
	if j.RequestTimeout == 0 {
		j.RequestTimeout = DefaultRequestTimeout
	}
	if j.ChromePath == "" {
		j.ChromePath = d.ChromePath
	}

	if j.DOM.Headless == nil {
		headless := true
		if d.Headless != nil {
			headless = *d.Headless
		}
		j.DOM.Headless = &headless
	}
	if j.DOM.NavigationTimeout == 0 {
		j.DOM.NavigationTimeout = DefaultNavigationTimeout
	}
	if j.DOM.TableTimeout == 0 {
		j.DOM.TableTimeout = DefaultTableTimeout
	}
	if j.DOM.InteractionTimeout == 0 {
		j.DOM.InteractionTimeout = DefaultInteractionTimeout
	}
	if j.DOM.DismissTexts == nil && j.DOM.DismissSelectors == nil {
		j.DOM.DismissTexts = DefaultDismissTexts
		j.DOM.DismissSelectors = DefaultDismissSelectors
	}
	if j.DOM.TriggerTexts == nil && j.DOM.TriggerSelectors == nil {
		j.DOM.TriggerTexts = DefaultTriggerTexts
	}

	if j.API.Method == "" {
		j.API.Method = http.MethodPost
	}
	j.API.Method = strings.ToUpper(j.API.Method)
	j.API.BodyFormat = strings.ToLower(j.API.BodyFormat)
	if j.API.BodyFormat == "" {
		j.API.BodyFormat = BodyForm
	}
	if j.API.PageSize == 0 {
		j.API.PageSize = DefaultPageSize
	}
	if j.API.MaxPages == 0 {
		j.API.MaxPages = DefaultMaxPages
	}
	if j.API.OffsetParam == "" {
		j.API.OffsetParam = DefaultOffsetParam
	}
	if j.API.LengthParam == "" {
		j.API.LengthParam = DefaultLengthParam
	}
	if j.API.ResultField == "" {
		j.API.ResultField = DefaultResultField
	}
	if len(j.API.Header) == 0 {
		j.API.Header = j.API.Fields
	}
	j.API.Headers = expandHeaders(j.API.Headers)

	if len(j.Ticker.Header) == 0 {
		j.Ticker.Header = j.Ticker.Fields
	}
	j.Ticker.Headers = expandHeaders(j.Ticker.Headers)

	return j
}

// Validate checks the job's strategy-specific settings.
// It is applied to the job as written; defaults are filled in later.
func (j JobConfig) Validate() error {
	if j.Tab == "" {
		return ErrMissingTab
	}
	if j.URL == "" {
		return ErrMissingURL
	}

	switch strings.ToLower(j.Strategy) {
	case StrategyDOM, StrategyStatic:
	case StrategyAPI:
		if len(j.API.Fields) == 0 {
			return ErrMissingFields
		}
		if len(j.API.Header) > 0 && len(j.API.Header) != len(j.API.Fields) {
			return ErrHeaderWidth
		}
		if j.API.PageSize < 0 {
			return ErrInvalidPageSize
		}
		switch strings.ToLower(j.API.BodyFormat) {
		case "", BodyForm, BodyJSON:
		default:
			return ErrInvalidBodyFormat
		}
	case StrategyTicker:
		if len(j.Ticker.Tickers) == 0 {
			return ErrMissingTickers
		}
		if len(j.Ticker.Fields) == 0 {
			return ErrMissingFields
		}
		if len(j.Ticker.Header) > 0 && len(j.Ticker.Header) != len(j.Ticker.Fields) {
			return ErrHeaderWidth
		}
	default:
		return ErrInvalidStrategy
	}

	if j.Token != nil {
		switch j.Token.Source {
		case TokenLocalStorage, TokenMeta:
		default:
			return ErrInvalidTokenSource
		}
		if j.Token.URL == "" {
			return ErrMissingURL
		}
	}
	return nil
}

// expandHeaders replaces ${NAME} references in header values with the
// environment, so tokens can stay out of the file.
func expandHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return headers
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = os.ExpandEnv(v)
	}
	return out
}
