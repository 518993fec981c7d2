package acquire

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Candidate is one element a best-effort click may target: either a
// visible label matched case-insensitively, or a CSS selector.
type Candidate struct {
	Text     string
	Selector string
}

func (c Candidate) String() string {
	if c.Selector != "" {
		return c.Selector
	}
	return "text=" + c.Text
}

// Candidates returns text candidates followed by selector candidates.
func Candidates(texts, selectors []string) []Candidate {
	out := make([]Candidate, 0, len(texts)+len(selectors))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, Candidate{Text: t})
		}
	}
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, Candidate{Selector: s})
		}
	}
	return out
}

// probeChain is an ordered fallback chain of click candidates. Every
// attempt runs under its own timeout and its error is logged and dropped;
// one candidate failing never affects the next.
type probeChain struct {
	candidates []Candidate
	timeout    time.Duration
	logger     *slog.Logger
}

// clickAll clicks every candidate present on the page and returns how many
// were clicked.
func (p probeChain) clickAll(ctx context.Context, page Page) int {
	clicked := 0
	for _, c := range p.candidates {
		if ctx.Err() != nil {
			return clicked
		}
		if p.try(ctx, page, c) {
			clicked++
		}
	}
	return clicked
}

// clickFirst clicks the first candidate present on the page.
func (p probeChain) clickFirst(ctx context.Context, page Page) (Candidate, bool) {
	for _, c := range p.candidates {
		if ctx.Err() != nil {
			return Candidate{}, false
		}
		if p.try(ctx, page, c) {
			return c, true
		}
	}
	return Candidate{}, false
}

func (p probeChain) try(ctx context.Context, page Page, c Candidate) bool {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ok, err := page.Click(cctx, c)
	if err != nil {
		p.logger.Debug("click candidate failed", "candidate", c.String(), "error", err)
		return false
	}
	if ok {
		p.logger.Debug("clicked candidate", "candidate", c.String())
	}
	return ok
}
