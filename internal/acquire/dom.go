package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// DOMStrategy renders a listing page in a browser and parses the first
// table with visible text.
//
// The protocol is fixed: navigate, dismiss banners, trigger the search,
// wait for a table, extract. Only navigation errors other than a timeout
// and extraction errors fail the run. The browsing session is closed on
// every path.
type DOMStrategy struct {
	url     string
	browser Browser
	logger  *slog.Logger

	navigationTimeout  time.Duration
	tableTimeout       time.Duration
	interactionTimeout time.Duration

	dismiss    []Candidate
	trigger    []Candidate
	submitForm bool
}

// DOMOption configures a DOMStrategy.
type DOMOption func(*DOMStrategy)

// WithDOMLogger sets the logger.
func WithDOMLogger(logger *slog.Logger) DOMOption {
	return func(s *DOMStrategy) {
		s.logger = logger
	}
}

// WithNavigationTimeout bounds the initial page load and network settle.
func WithNavigationTimeout(d time.Duration) DOMOption {
	return func(s *DOMStrategy) {
		if d > 0 {
			s.navigationTimeout = d
		}
	}
}

// WithTableTimeout bounds the wait for a table element.
func WithTableTimeout(d time.Duration) DOMOption {
	return func(s *DOMStrategy) {
		if d > 0 {
			s.tableTimeout = d
		}
	}
}

// WithInteractionTimeout bounds every click attempt and post-click settle.
func WithInteractionTimeout(d time.Duration) DOMOption {
	return func(s *DOMStrategy) {
		if d > 0 {
			s.interactionTimeout = d
		}
	}
}

// WithDismiss sets the banner close candidates. Every present candidate
// is clicked.
func WithDismiss(candidates []Candidate) DOMOption {
	return func(s *DOMStrategy) {
		s.dismiss = candidates
	}
}

// WithTrigger sets the search trigger candidates. Only the first present
// candidate is clicked.
func WithTrigger(candidates []Candidate) DOMOption {
	return func(s *DOMStrategy) {
		s.trigger = candidates
	}
}

// WithSubmitForm submits the first form when no trigger candidate exists.
func WithSubmitForm(submit bool) DOMOption {
	return func(s *DOMStrategy) {
		s.submitForm = submit
	}
}

// NewDOMStrategy returns a DOMStrategy for url.
func NewDOMStrategy(url string, browser Browser, opts ...DOMOption) *DOMStrategy {
	s := &DOMStrategy{
		url:                url,
		browser:            browser,
		navigationTimeout:  config.DefaultNavigationTimeout,
		tableTimeout:       config.DefaultTableTimeout,
		interactionTimeout: config.DefaultInteractionTimeout,
		dismiss:            Candidates(config.DefaultDismissTexts, config.DefaultDismissSelectors),
		trigger:            Candidates(config.DefaultTriggerTexts, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns "dom".
func (s *DOMStrategy) Name() string {
	return config.StrategyDOM
}

// Acquire runs the browser protocol and returns the parsed table rows.
// No table with text is an EmptyError wrapping ErrTableNotFound that
// carries the start of the page.
func (s *DOMStrategy) Acquire(ctx context.Context) (g grid.Grid, err error) {
	page, err := s.browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.logger.Debug("close browser", "error", cerr)
		}
	}()

	if err := s.navigate(ctx, page); err != nil {
		return nil, err
	}

	s.interact(ctx, page)

	tctx, cancel := context.WithTimeout(ctx, s.tableTimeout)
	if err := page.WaitTable(tctx); err != nil {
		s.logger.Debug("no table appeared", "url", s.url, "timeout", s.tableTimeout, "error", err)
	}
	cancel()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fragment, err := s.extract(ctx, page)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fragment) == "" {
		content, cerr := s.content(ctx, page)
		if cerr != nil {
			s.logger.Debug("read page content", "error", cerr)
		}
		return nil, NewEmptyError(ErrTableNotFound, content)
	}

	g = grid.ParseTable(fragment)
	if g.IsEmpty() {
		return nil, NewEmptyError(ErrNoRows, fragment)
	}
	s.logger.Debug("table extracted", "url", s.url, "rows", g.Len())
	return g, nil
}

// navigate loads the page. A timeout is tolerated: the session continues
// with whatever the browser loaded so far.
func (s *DOMStrategy) navigate(ctx context.Context, page Page) error {
	nctx, cancel := context.WithTimeout(ctx, s.navigationTimeout)
	defer cancel()

	if err := page.Navigate(nctx, s.url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigate to %s: %w", s.url, err)
		}
		s.logger.Warn("navigation timed out, continuing with partial page",
			"url", s.url,
			"timeout", s.navigationTimeout,
		)
		return nil
	}
	if err := page.WaitSettled(nctx); err != nil {
		s.logger.Debug("network did not settle after navigation", "url", s.url, "error", err)
	}
	return nil
}

// interact runs the banner dismissal and search trigger passes. Nothing
// here can fail the run.
func (s *DOMStrategy) interact(ctx context.Context, page Page) {
	chain := func(candidates []Candidate) probeChain {
		return probeChain{candidates: candidates, timeout: s.interactionTimeout, logger: s.logger}
	}

	if n := chain(s.dismiss).clickAll(ctx, page); n > 0 {
		s.logger.Debug("dismissed banners", "count", n)
	}

	triggered := false
	if c, ok := chain(s.trigger).clickFirst(ctx, page); ok {
		s.logger.Debug("triggered search", "candidate", c.String())
		triggered = true
	} else if s.submitForm {
		sctx, cancel := context.WithTimeout(ctx, s.interactionTimeout)
		submitted, err := page.SubmitForm(sctx)
		cancel()
		if err != nil {
			s.logger.Debug("submit form failed", "error", err)
		}
		triggered = submitted
	}
	if !triggered {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, s.interactionTimeout)
	defer cancel()
	if err := page.WaitSettled(wctx); err != nil {
		s.logger.Debug("network did not settle after trigger", "error", err)
	}
}

func (s *DOMStrategy) extract(ctx context.Context, page Page) (string, error) {
	ectx, cancel := context.WithTimeout(ctx, s.interactionTimeout)
	defer cancel()

	fragment, err := page.FirstTable(ectx)
	if err != nil {
		return "", fmt.Errorf("extract table: %w", err)
	}
	return fragment, nil
}

func (s *DOMStrategy) content(ctx context.Context, page Page) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.interactionTimeout)
	defer cancel()
	return page.Content(cctx)
}
