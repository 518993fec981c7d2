package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/fiisheet/internal/grid"
	"golang.org/x/text/encoding/charmap"
)

func serveHTML(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticStrategyAcquire(t *testing.T) {
	t.Parallel()

	t.Run("skips decorative tables", func(t *testing.T) {
		t.Parallel()

		page := `<html><body>
			<table class="spacer"><tr><td> </td></tr></table>
			<table id="resultado">
				<thead><tr><th>Papel</th><th>Segmento</th></tr></thead>
				<tbody><tr><td>MXRF11</td><td>Títulos e Val.&nbsp;Mob.</td></tr></tbody>
			</table>
		</body></html>`
		srv := serveHTML(t, "text/html; charset=utf-8", []byte(page))

		g, err := NewStaticStrategy(srv.URL).Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := grid.Grid{{"Papel", "Segmento"}, {"MXRF11", "Títulos e Val. Mob."}}
		if diff := cmp.Diff(want, g); diff != "" {
			t.Errorf("grid mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("decodes latin-1 pages", func(t *testing.T) {
		t.Parallel()

		utf8Page := `<table><tr><td>Lajes Corporativas</td><td>Logística</td></tr></table>`
		latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8Page)
		if err != nil {
			t.Fatal(err)
		}
		srv := serveHTML(t, "text/html; charset=ISO-8859-1", []byte(latin1))

		g, err := NewStaticStrategy(srv.URL).Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(grid.Grid{{"Lajes Corporativas", "Logística"}}, g); diff != "" {
			t.Errorf("grid mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("forced charset overrides the header", func(t *testing.T) {
		t.Parallel()

		latin1, err := charmap.ISO8859_1.NewEncoder().String(`<table><tr><td>Híbrido</td></tr></table>`)
		if err != nil {
			t.Fatal(err)
		}
		srv := serveHTML(t, "text/html; charset=utf-8", []byte(latin1))

		g, err := NewStaticStrategy(srv.URL, WithCharset("iso-8859-1")).Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(grid.Grid{{"Híbrido"}}, g); diff != "" {
			t.Errorf("grid mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no table returns ErrTableNotFound", func(t *testing.T) {
		t.Parallel()

		srv := serveHTML(t, "text/html", []byte(`<html><body><p>Acesso negado</p></body></html>`))
		_, err := NewStaticStrategy(srv.URL).Acquire(context.Background())
		if !errors.Is(err, ErrTableNotFound) {
			t.Fatalf("expected ErrTableNotFound, got %v", err)
		}
		var empty *EmptyError
		if !errors.As(err, &empty) || empty.Snippet == "" {
			t.Errorf("expected snippet in EmptyError, got %v", err)
		}
	})

	t.Run("server error is a status error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		_, err := NewStaticStrategy(srv.URL).Acquire(context.Background())
		var se *HTTPStatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected HTTPStatusError 503, got %v", err)
		}
	})

	t.Run("sends the configured user agent", func(t *testing.T) {
		t.Parallel()

		got := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.UserAgent()
			_, _ = w.Write([]byte(`<table><tr><td>A</td></tr></table>`))
		}))
		t.Cleanup(srv.Close)

		client := NewHTTPClient(WithUserAgent("Mozilla/5.0 test"))
		if _, err := NewStaticStrategy(srv.URL, WithStaticClient(client)).Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua := <-got; ua != "Mozilla/5.0 test" {
			t.Errorf("expected user agent, got %q", ua)
		}
	})
}
