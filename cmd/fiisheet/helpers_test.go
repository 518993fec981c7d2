package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a configuration file into a temp dir and returns its
// path. The xlsx workbook lives next to it.
func writeConfig(t *testing.T, body string) (configPath, workbook string) {
	t.Helper()

	dir := t.TempDir()
	workbook = filepath.Join(dir, "fiis.xlsx")
	content := fmt.Sprintf("sink:\n  type: xlsx\n  path: %s\n%s", workbook, body)

	configPath = filepath.Join(dir, "fiisheet.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, workbook
}

// execute runs the root command with args and returns stdout, stderr and
// the error returned by cobra.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// htmlServer serves body as an HTML page.
func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// jsonServer serves body as a JSON document.
func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const listingPage = `<html><body>
<table id="ads"><tr><td> </td></tr></table>
<table>
  <tr><th>Fundo</th><th>Setor</th><th>DY</th></tr>
  <tr><td>ABCD11</td><td>Log&iacute;stica</td><td>9,8%</td></tr>
  <tr><td>EFGH11</td><td>Papel</td></tr>
</table>
</body></html>`
