package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jenkinsci/radiatorview/internal/config"
	"github.com/jenkinsci/radiatorview/internal/store"
)

const testConfigYAML = `
version: 1
view:
  name: wallboard
  caption_text: Build status
  show_stable: true
  exclude_regex: "^scratch-.*"
`

const testHistoryYAML = `
version: 1
jobs:
  - name: web_api
    builds:
      - number: 4
        result: SUCCESS
        tests:
          - total: 20
  - name: web_ui
    builds:
      - number: 9
        result: FAILURE
        culprits: [alice]
  - name: db_migrate
    builds:
      - number: 2
        result: SUCCESS
  - name: scratch-tmp
    builds:
      - number: 1
        result: FAILURE
queue:
  - item: q-1
    job: db_migrate
`

func newTestRadiatorServer(t *testing.T) *radiatorServer {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "radiator.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	h, err := store.ParseHistory([]byte(testHistoryYAML), "test-history")
	if err != nil {
		t.Fatalf("parse history: %v", err)
	}
	if err := db.Import(context.Background(), h); err != nil {
		t.Fatalf("import history: %v", err)
	}
	cfg, err := config.Parse([]byte(testConfigYAML), "test-config")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	s := newRadiatorServer(db, cfg)
	if _, err := s.refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return s
}

func newTestHTTPServer(t *testing.T) (*httptest.Server, *radiatorServer) {
	t.Helper()
	s := newTestRadiatorServer(t)
	ts := httptest.NewServer(buildRouter(s))
	t.Cleanup(func() {
		s.hub.closeAll()
		ts.Close()
	})
	return ts, s
}

func mustJSONRequest(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request JSON: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSONBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("decode response body: %v, tail=%q", err, string(raw))
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}
