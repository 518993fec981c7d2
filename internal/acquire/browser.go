package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Page is one open browser tab. Every method honours the deadline of ctx.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Click clicks the first element matching c. It reports false when no
	// element matches.
	Click(ctx context.Context, c Candidate) (bool, error)

	// WaitSettled waits until the document is complete and no new network
	// resources have been requested for a short quiet period.
	WaitSettled(ctx context.Context) error

	// SubmitForm submits the first form of the document. It reports false
	// when the document has no form.
	SubmitForm(ctx context.Context) (bool, error)

	// WaitTable waits until at least one table element exists.
	WaitTable(ctx context.Context) error

	// FirstTable returns the outer HTML of the first table whose text
	// content is not blank, or "" when there is none.
	FirstTable(ctx context.Context) (string, error)

	// Content returns the outer HTML of the whole document.
	Content(ctx context.Context) (string, error)

	// LocalStorage returns the localStorage value stored under key.
	LocalStorage(ctx context.Context, key string) (string, error)

	// Close releases the tab and its browser process.
	Close() error
}

// Browser opens isolated browsing sessions.
type Browser interface {
	Open(ctx context.Context) (Page, error)
}

// settlePoll is the interval between network settle checks. Two equal
// consecutive resource counts mean the network is quiet.
const settlePoll = 250 * time.Millisecond

const (
	jsFirstTable = `(() => {
  for (const t of document.querySelectorAll('table')) {
    if ((t.textContent || '').trim() !== '') return t.outerHTML;
  }
  return '';
})()`

	jsContent = `document.documentElement ? document.documentElement.outerHTML : ''`

	jsSubmitForm = `(() => {
  const f = document.querySelector('form');
  if (!f) return false;
  if (typeof f.requestSubmit === 'function') f.requestSubmit(); else f.submit();
  return true;
})()`

	jsSettleProbe = `[document.readyState, performance.getEntriesByType('resource').length]`

	// Buttons match when their label contains the text; links only on an
	// exact label so a "Closed funds" link is never taken for "Close".
	jsClickText = `((text) => {
  const want = text.trim().toLowerCase();
  const label = (el) => (el.innerText || el.value || '').trim().toLowerCase();
  const buttons = document.querySelectorAll('button, [role="button"], input[type="button"], input[type="submit"]');
  for (const el of buttons) {
    const l = label(el);
    if (l !== '' && l.includes(want)) { el.click(); return true; }
  }
  for (const el of document.querySelectorAll('a')) {
    if (el.getAttribute('role') !== 'button' && label(el) === want) { el.click(); return true; }
  }
  return false;
})(%s)`

	jsClickSelector = `((sel) => {
  const el = document.querySelector(sel);
  if (!el) return false;
  el.click();
  return true;
})(%s)`

	jsLocalStorage = `(window.localStorage.getItem(%s) || '')`
)

// ChromeBrowser launches headless Chrome through chromedp.
type ChromeBrowser struct {
	headless  bool
	userAgent string
	execPath  string
}

// BrowserOption configures a ChromeBrowser.
type BrowserOption func(*ChromeBrowser)

// WithHeadless sets whether Chrome runs without a window.
func WithHeadless(headless bool) BrowserOption {
	return func(b *ChromeBrowser) {
		b.headless = headless
	}
}

// WithBrowserUserAgent sets the user agent of the session.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(b *ChromeBrowser) {
		if ua != "" {
			b.userAgent = ua
		}
	}
}

// WithExecPath sets the Chrome binary. Defaults to chromedp's lookup.
func WithExecPath(path string) BrowserOption {
	return func(b *ChromeBrowser) {
		b.execPath = path
	}
}

// NewChromeBrowser returns a Browser backed by a local Chrome install.
func NewChromeBrowser(opts ...BrowserOption) *ChromeBrowser {
	b := &ChromeBrowser{
		headless:  true,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open starts a fresh Chrome process with its own profile.
//
// The sandbox flags allow running inside containers, where Chrome's
// setuid sandbox and a small /dev/shm are the norm.
func (b *ChromeBrowser) Open(ctx context.Context) (Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(b.userAgent),
	)
	if b.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// The first Run starts the browser; it must not carry a step timeout
	// or the process would be killed when that timeout expires.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromePage{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

type chromePage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// bind derives a chromedp context from the tab that also ends when ctx
// ends, keeping the deadline of ctx.
func (p *chromePage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(p.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		bound, cancelDeadline = context.WithDeadline(bound, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// run executes actions and maps an expired bound context to the error of
// the caller's context, so callers can test for context.DeadlineExceeded.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	bound, cancel := p.bind(ctx)
	defer cancel()

	err := chromedp.Run(bound, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) Click(ctx context.Context, c Candidate) (bool, error) {
	var expr string
	if c.Selector != "" {
		expr = fmt.Sprintf(jsClickSelector, jsString(c.Selector))
	} else {
		expr = fmt.Sprintf(jsClickText, jsString(c.Text))
	}
	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

func (p *chromePage) WaitSettled(ctx context.Context) error {
	last := -1
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()

	for {
		var probe []any
		if err := p.run(ctx, chromedp.Evaluate(jsSettleProbe, &probe)); err != nil {
			return err
		}
		if len(probe) == 2 {
			state, _ := probe[0].(string)
			count, _ := probe[1].(float64)
			if state == "complete" && int(count) == last {
				return nil
			}
			last = int(count)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *chromePage) SubmitForm(ctx context.Context) (bool, error) {
	var submitted bool
	if err := p.run(ctx, chromedp.Evaluate(jsSubmitForm, &submitted)); err != nil {
		return false, err
	}
	return submitted, nil
}

func (p *chromePage) WaitTable(ctx context.Context) error {
	return p.run(ctx, chromedp.WaitReady("table", chromedp.ByQuery))
}

func (p *chromePage) FirstTable(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.Evaluate(jsFirstTable, &html)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.Evaluate(jsContent, &html)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) LocalStorage(ctx context.Context, key string) (string, error) {
	var value string
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(jsLocalStorage, jsString(key)), &value)); err != nil {
		return "", err
	}
	return value, nil
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancelTab()
	p.cancelAlloc()
	return err
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
