package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	configDir string
	cacheDir  string
	server    *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{"CURRY_API", "CURRY_CACHE_TIMEOUT", "CURRY_REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	env := &testEnv{
		configDir: t.TempDir(),
		cacheDir:  t.TempDir(),
	}
	t.Setenv("CURRY_CONFIG_DIR", env.configDir)
	t.Setenv("CURRY_CACHE_DIR", env.cacheDir)

	r := chi.NewRouter()
	r.Get("/d/quotes.csv", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "0.85\n")
	})
	r.Get("/api/latest.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("app_id") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": true, "status": 401, "message": "invalid_app_id"}`)
			return
		}
		fmt.Fprint(w, `{"base": "USD", "rates": {"EUR": 0.9, "JPY": 110}}`)
	})
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, baseURL: e.server.URL}
	code := a.run(args)
	return code, stdout.String(), stderr.String()
}

func TestConvert(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"default amount", []string{"usd", "eur"}, "0.85\n"},
		{"single amount", []string{"USD", "EUR", "100"}, "85.00\n"},
		{"summed amounts", []string{"USD", "EUR", "10", "5.5"}, "13.18\n"},
		{"table provider", []string{"-a", "openexchangerates.org", "-k", "secret", "EUR", "JPY"}, "122.22\n"},
		{"provider by index", []string{"-a", "4", "-k", "secret", "USD", "EUR", "2"}, "1.80\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := env.run(tt.args...)
			require.Equal(t, 0, code, "stderr: %s", stderr)
			assert.Equal(t, tt.expected, stdout)
		})
	}

	// the pair provider wrote its cache file
	_, err := os.Stat(filepath.Join(env.cacheDir, "finance.yahoo.com.json"))
	assert.NoError(t, err)
}

func TestConvertErrors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"missing arguments", []string{"USD"}, "requires at least 2 arg(s)"},
		{"bad amount", []string{"USD", "EUR", "ten"}, `invalid amount: "ten"`},
		{"unknown provider", []string{"-a", "nonexistent.example", "USD", "EUR"}, "unknown API provider: nonexistent.example"},
		{"index out of range", []string{"-a", "9", "USD", "EUR"}, "unknown API provider: 9"},
		{"missing key", []string{"-a", "openexchangerates.org", "USD", "EUR"}, "(openexchangerates.org) API key required"},
		{"invalid key", []string{"-a", "openexchangerates.org", "-k", "wrong", "USD", "EUR"}, "invalid API key: wrong"},
		{"unknown currency", []string{"-a", "openexchangerates.org", "-k", "secret", "USD", "XXX"}, "unknown currency: XXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := env.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "error: ")
			assert.Contains(t, stderr, tt.message)
		})
	}
}

func TestConvertTransportFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.server.Close()

	code, stdout, stderr := env.run("USD", "EUR")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unable to get exchange rate")
}

func TestList(t *testing.T) {
	env := setupTestEnv(t)

	code, stdout, _ := env.run("--list")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Available API providers:", lines[0])
	assert.Equal(t, " (1) exchangerate-api.com (requires: api_key)", lines[1])
	assert.Equal(t, " (2) finance.yahoo.com*", lines[2])
	assert.Equal(t, " (3) oanda.com", lines[3])
	assert.Equal(t, " (4) openexchangerates.org (requires: api_key)", lines[4])
	assert.Equal(t, " (5) rate-exchange.appspot.com", lines[5])
}

func TestSave(t *testing.T) {
	env := setupTestEnv(t)

	code, _, stderr := env.run("-s", "-a", "openexchangerates.org", "-k", "secret", "USD", "EUR")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `api = "openexchangerates.org"`)
	assert.Contains(t, string(data), `api_key = "secret"`)

	// saved provider and key are used by default now
	code, stdout, stderr := env.run("USD", "JPY")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "110.00\n", stdout)

	code, stdout, _ = env.run("-l")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "openexchangerates.org* (requires: api_key)")
}

func TestVersion(t *testing.T) {
	env := setupTestEnv(t)

	code, stdout, _ := env.run("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, version)
}

func TestSumAmounts(t *testing.T) {
	sum, err := sumAmounts(nil)
	require.NoError(t, err)
	assert.Equal(t, "1", sum.String())

	sum, err = sumAmounts([]string{"0.1", "0.2"})
	require.NoError(t, err)
	assert.Equal(t, "0.3", sum.String())

	_, err = sumAmounts([]string{"1,5"})
	assert.Error(t, err)
}
