package providers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/curry/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockAPI is an httptest server routed with chi that counts requests
type mockAPI struct {
	*httptest.Server
	Router chi.Router
	hits   atomic.Int32
}

func newMockAPI(t *testing.T) *mockAPI {
	t.Helper()
	m := &mockAPI{Router: chi.NewRouter()}
	m.Router.Use(m.count)
	m.Server = httptest.NewServer(m.Router)
	t.Cleanup(m.Server.Close)
	return m
}

func (m *mockAPI) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (m *mockAPI) Hits() int {
	return int(m.hits.Load())
}

func newTestCache(t *testing.T) *cache.FileCache {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return fc
}

func testOptions(api *mockAPI, store cache.Store, clock *fakeClock) Options {
	return Options{
		Cache:   store,
		BaseURL: api.URL,
		Now:     clock.Now,
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
