package acquire

import (
	"context"
	"errors"
	"sync"
)

// fakePage scripts a browser tab for DOM protocol tests.
type fakePage struct {
	mu sync.Mutex

	navigateErr error
	present     map[string]bool // candidate.String() -> exists
	clickErr    map[string]error
	hasForm     bool
	waitErr     error
	table       string
	content     string
	storage     map[string]string

	calls  []string
	closed bool
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate " + url)
	return p.navigateErr
}

func (p *fakePage) Click(_ context.Context, c Candidate) (bool, error) {
	p.record("click " + c.String())
	if err := p.clickErr[c.String()]; err != nil {
		return false, err
	}
	return p.present[c.String()], nil
}

func (p *fakePage) WaitSettled(context.Context) error {
	p.record("settle")
	return nil
}

func (p *fakePage) SubmitForm(context.Context) (bool, error) {
	p.record("submit")
	return p.hasForm, nil
}

func (p *fakePage) WaitTable(context.Context) error {
	p.record("wait table")
	return p.waitErr
}

func (p *fakePage) FirstTable(context.Context) (string, error) {
	p.record("first table")
	return p.table, nil
}

func (p *fakePage) Content(context.Context) (string, error) {
	return p.content, nil
}

func (p *fakePage) LocalStorage(_ context.Context, key string) (string, error) {
	return p.storage[key], nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) clicked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if len(c) > 6 && c[:6] == "click " && p.present[c[6:]] {
			out = append(out, c[6:])
		}
	}
	return out
}

func (p *fakePage) called(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.calls {
		if c == call {
			return true
		}
	}
	return false
}

// fakeBrowser hands out one fakePage.
type fakeBrowser struct {
	page    *fakePage
	openErr error
}

func (b *fakeBrowser) Open(context.Context) (Page, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

var errBoom = errors.New("boom")
