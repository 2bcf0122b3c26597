package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-crawler/internal/usecase"
)

func TestParseStartURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://EXAMPLE.com:8080/docs?q=1", false},
		{"example.com", true},
		{"/relative/path", true},
		{"mailto:someone@example.com", true},
		{"http://[::1", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := parseStartURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, u.Hostname())
		})
	}

	_, err := parseStartURL("mailto:someone@example.com")
	assert.ErrorIs(t, err, usecase.ErrMissingHost)
}

func TestRootCmdRequiresExactlyOneArgument(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())

	cmd = NewRootCmd()
	cmd.SetArgs([]string{"https://a.example", "https://b.example"})
	assert.Error(t, cmd.Execute())
}

func TestRootCmdRejectsHostlessURLBeforeCrawling(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STATE_STORE", "memory")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"not-a-url"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, usecase.ErrMissingHost)
}

func TestRootCmdRejectsInvalidConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STATE_STORE", "memory")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--max-concurrent", "-1", "https://example.com"})
	assert.ErrorContains(t, cmd.Execute(), "MAX_CONCURRENT_REQUESTS")
}

func TestRootCmdCrawlsSite(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<a href="/about">About</a><a href="%s/docs/">Docs</a><a href="https://elsewhere.test/">x</a>`, srv.URL)
		case "/about", "/docs":
			fmt.Fprint(w, `<a href="/">Home</a>`)
		default:
			http.NotFound(w, r)
		}
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("STATE_STORE", "memory")
	t.Setenv("RESULTS_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "results.db"))
	t.Setenv("LOG_LEVEL", "warn")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--max-concurrent", "2", srv.URL})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dir, "results.db"))
	assert.NoError(t, err)
}

// chdir switches the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
