package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/fiisheet/internal/config"
	"github.com/nao1215/fiisheet/internal/grid"
)

// pagedServer serves total records in pages, reading start/length from a
// form body.
func pagedServer(t *testing.T, total int, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start, _ := strconv.Atoi(r.PostForm.Get("start"))
		length, _ := strconv.Atoi(r.PostForm.Get("length"))

		records := []map[string]any{}
		for i := start; i < total && i < start+length; i++ {
			records = append(records, map[string]any{
				"ticker": fmt.Sprintf("FII%03d", i),
				"dy":     float64(i) / 10,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": records, "recordsTotal": total})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	page := func(n int) []Record {
		out := make([]Record, n)
		for i := range out {
			out[i] = Record{"i": i}
		}
		return out
	}

	tests := []struct {
		name     string
		page     []Record
		wantLen  int
		wantNext Cursor
		wantDone bool
	}{
		{name: "empty page stops without advancing", page: nil, wantLen: 0, wantNext: Cursor{Offset: 0, PageSize: 10}, wantDone: true},
		{name: "full page continues", page: page(10), wantLen: 10, wantNext: Cursor{Offset: 10, PageSize: 10}, wantDone: false},
		{name: "short page stops", page: page(4), wantLen: 4, wantNext: Cursor{Offset: 10, PageSize: 10}, wantDone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			acc, next, done := Advance(nil, tt.page, Cursor{Offset: 0, PageSize: 10})
			if len(acc) != tt.wantLen {
				t.Errorf("expected %d records, got %d", tt.wantLen, len(acc))
			}
			if next != tt.wantNext {
				t.Errorf("expected cursor %+v, got %+v", tt.wantNext, next)
			}
			if done != tt.wantDone {
				t.Errorf("expected done=%v, got %v", tt.wantDone, done)
			}
		})
	}
}

func TestAPIStrategyPagination(t *testing.T) {
	t.Parallel()

	t.Run("100 then 40 records takes two requests", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := pagedServer(t, 140, &requests)

		s := NewAPIStrategy(srv.URL, []string{"ticker", "dy"}, WithPageSize(100))
		g, err := s.Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := requests.Load(); got != 2 {
			t.Errorf("expected 2 requests, got %d", got)
		}
		if g.Len() != 140 {
			t.Errorf("expected 140 rows, got %d", g.Len())
		}
		if diff := cmp.Diff(grid.Row{"FII000", "0"}, g[0]); diff != "" {
			t.Errorf("first row mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(grid.Row{"FII139", "13.9"}, g[139]); diff != "" {
			t.Errorf("last row mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty first page takes one request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := pagedServer(t, 0, &requests)

		g, err := NewAPIStrategy(srv.URL, []string{"ticker"}).Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
		if !g.IsEmpty() {
			t.Errorf("expected empty grid, got %d rows", g.Len())
		}
	})

	t.Run("terminates within ceil(n/p)+1 requests", func(t *testing.T) {
		t.Parallel()

		for _, total := range []int{1, 99, 100, 101, 250, 300} {
			var requests atomic.Int32
			srv := pagedServer(t, total, &requests)

			g, err := NewAPIStrategy(srv.URL, []string{"ticker"}, WithPageSize(50)).Acquire(context.Background())
			if err != nil {
				t.Fatalf("total %d: unexpected error: %v", total, err)
			}
			limit := int32((total+49)/50 + 1)
			if got := requests.Load(); got > limit {
				t.Errorf("total %d: expected at most %d requests, got %d", total, limit, got)
			}
			if g.Len() != total {
				t.Errorf("total %d: expected %d rows, got %d", total, total, g.Len())
			}
		}
	})

	t.Run("max pages caps an endpoint that ignores the offset", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			_, _ = io.WriteString(w, `{"data":[{"ticker":"A"},{"ticker":"B"}]}`)
		}))
		t.Cleanup(srv.Close)

		g, err := NewAPIStrategy(srv.URL, []string{"ticker"}, WithPageSize(2), WithMaxPages(3)).Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := requests.Load(); got != 3 {
			t.Errorf("expected 3 requests, got %d", got)
		}
		if g.Len() != 6 {
			t.Errorf("expected 6 rows, got %d", g.Len())
		}
	})
}

func TestAPIStrategyRequest(t *testing.T) {
	t.Parallel()

	t.Run("form body carries cursor, params and headers", func(t *testing.T) {
		t.Parallel()

		type seen struct {
			contentType, xhr, csrf string
			form                   map[string]string
		}
		got := make(chan seen, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			got <- seen{
				contentType: r.Header.Get("Content-Type"),
				xhr:         r.Header.Get("X-Requested-With"),
				csrf:        r.Header.Get("X-CSRF-TOKEN"),
				form: map[string]string{
					"start":  r.PostForm.Get("start"),
					"length": r.PostForm.Get("length"),
					"order":  r.PostForm.Get("order"),
					"dy_min": r.PostForm.Get("dy_min"),
				},
			}
			_, _ = io.WriteString(w, `{"data":[]}`)
		}))
		t.Cleanup(srv.Close)

		s := NewAPIStrategy(srv.URL, []string{"ticker"},
			WithPageSize(25),
			WithParams(map[string]any{"order": "dy", "dy_min": 8}),
			WithHeaders(map[string]string{"X-Requested-With": "XMLHttpRequest"}),
			WithAPIToken(&TokenHeader{Source: staticToken("abc"), Header: "X-CSRF-TOKEN"}),
		)
		if _, err := s.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := <-got
		if req.contentType != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", req.contentType)
		}
		if req.xhr != "XMLHttpRequest" || req.csrf != "abc" {
			t.Errorf("unexpected headers: xhr=%q csrf=%q", req.xhr, req.csrf)
		}
		want := map[string]string{"start": "0", "length": "25", "order": "dy", "dy_min": "8"}
		if diff := cmp.Diff(want, req.form); diff != "" {
			t.Errorf("form mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("json body", func(t *testing.T) {
		t.Parallel()

		got := make(chan map[string]any, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			got <- body
			_, _ = io.WriteString(w, `{"rows":null}`)
		}))
		t.Cleanup(srv.Close)

		s := NewAPIStrategy(srv.URL, []string{"ticker"},
			WithBodyFormat("json"),
			WithResultField("rows"),
			WithCursorParams("offset", "limit"),
			WithPageSize(10),
		)
		if _, err := s.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body := <-got
		if body["offset"] != float64(0) || body["limit"] != float64(10) {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("uppercase json body format from config", func(t *testing.T) {
		t.Parallel()

		got := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.Header.Get("Content-Type")
			_, _ = io.WriteString(w, `{"data":[]}`)
		}))
		t.Cleanup(srv.Close)

		job := config.JobConfig{
			Strategy: config.StrategyAPI,
			URL:      srv.URL,
			Tab:      "Fundos",
			API:      config.APIConfig{Fields: []string{"ticker"}, BodyFormat: "JSON"},
		}.WithDefaults(config.Defaults{})
		if err := job.Validate(); err != nil {
			t.Fatalf("Validate error: %v", err)
		}
		s, err := New(job)
		if err != nil {
			t.Fatalf("New error: %v", err)
		}
		_, _ = s.Acquire(context.Background())

		if ct := <-got; !strings.HasPrefix(ct, "application/json") {
			t.Errorf("expected a json body, got content type %q", ct)
		}
	})
}

func TestAPIStrategyProjection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[
			{"ticker":"MXRF11","dy":12.05,"sector":"Papel","pvp":1.01},
			{"ticker":"HGLG11","dy":8.4,"pvp":0.98},
			{"ticker":"XPML11","dy":null,"sector":"Shopping","pvp":1}
		]}`)
	}))
	t.Cleanup(srv.Close)

	s := NewAPIStrategy(srv.URL, []string{"ticker", "sector", "dy", "pvp"},
		WithHeaderRow([]string{"Ticker", "Setor", "DY", "P/VP"}))
	g, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := grid.Grid{
		{"MXRF11", "Papel", "12.05", "1.01"},
		{"HGLG11", "", "8.4", "0.98"},
		{"XPML11", "Shopping", "", "1"},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(grid.Row{"Ticker", "Setor", "DY", "P/VP"}, s.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIStrategyFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "non-success status",
			status: http.StatusForbidden,
			body:   `{"message":"forbidden"}`,
			check: func(err error) bool {
				var se *HTTPStatusError
				return errors.As(err, &se) && se.StatusCode == http.StatusForbidden
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"data":[`,
			check:  func(err error) bool { return errors.Is(err, ErrUnexpectedShape) },
		},
		{
			name:   "body is not an object",
			status: http.StatusOK,
			body:   `[{"ticker":"A"}]`,
			check:  func(err error) bool { return errors.Is(err, ErrUnexpectedShape) },
		},
		{
			name:   "result field is not an array",
			status: http.StatusOK,
			body:   `{"data":"oops"}`,
			check:  func(err error) bool { return errors.Is(err, ErrUnexpectedShape) },
		},
		{
			name:   "record is not an object",
			status: http.StatusOK,
			body:   `{"data":[1,2]}`,
			check:  func(err error) bool { return errors.Is(err, ErrUnexpectedShape) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			_, err := NewAPIStrategy(srv.URL, []string{"ticker"}).Acquire(context.Background())
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if errors.Is(err, ErrNoData) {
				t.Error("transport and shape failures must not be acquisition-empty")
			}
		})
	}
}

func TestProject(t *testing.T) {
	t.Parallel()

	rec := Record{
		"ticker": "MXRF11",
		"price":  json.Number("10.02"),
		"active": true,
		"tags":   []any{"papel", "cri"},
		"stats":  map[string]any{"dy": json.Number("12.3")},
	}
	got := Project(rec, []string{"ticker", "price", "active", "tags", "stats.dy", "sector", "stats.missing"})
	want := grid.Row{"MXRF11", "10.02", "true", `["papel","cri"]`, "12.3", "", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
