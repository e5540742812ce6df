// Package providers contains exchange-rate provider implementations
package providers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/curry/internal/cache"
)

const (
	// DefaultCacheTimeout is how long a cached rate is trusted
	DefaultCacheTimeout = 12 * time.Hour

	// DefaultRequestTimeout bounds a single HTTP request
	DefaultRequestTimeout = 10 * time.Second

	// RequiresAPIKey marks providers that cannot be used without a key
	RequiresAPIKey = "api_key"
)

// Provider defines the interface that all exchange-rate providers must implement
type Provider interface {
	// ID returns the provider identifier (e.g., "finance.yahoo.com")
	ID() string

	// ExchangeRate returns how many units of payment one unit of transaction buys
	ExchangeRate(ctx context.Context, transaction, payment string) (float64, error)
}

// Options carries everything a provider constructor needs
type Options struct {
	APIKey       string
	RefreshCache bool

	Cache        cache.Store // optional; nil means no cache
	CacheTimeout time.Duration

	HTTPClient *http.Client
	BaseURL    string // overrides the provider's scheme and host

	Logger zerolog.Logger
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if o.CacheTimeout <= 0 {
		o.CacheTimeout = DefaultCacheTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) baseURL(def string) string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}
	return def
}

// Constructor builds a provider from options
type Constructor func(opts Options) (Provider, error)

// Entry is a registered provider constructor with its required parameters
type Entry struct {
	ID       string
	Index    int // 1-based position in the sorted listing
	New      Constructor
	Requires []string
}

// Build checks required parameters and constructs the provider
func (e Entry) Build(opts Options) (Provider, error) {
	for _, req := range e.Requires {
		if req == RequiresAPIKey && opts.APIKey == "" {
			return nil, newProviderError(e.ID, "API key required")
		}
	}
	return e.New(opts)
}

// Registry manages available exchange-rate providers
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a provider to the registry, replacing any previous entry with the same id
func (r *Registry) Register(id string, ctor Constructor, requires ...string) {
	r.entries[id] = Entry{
		ID:       id,
		New:      ctor,
		Requires: append([]string(nil), requires...),
	}
}

// IDs returns all registered provider ids, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns all registered entries, sorted by id and numbered from 1
func (r *Registry) List() []Entry {
	ids := r.IDs()
	list := make([]Entry, 0, len(ids))
	for i, id := range ids {
		e := r.entries[id]
		e.Index = i + 1
		list = append(list, e)
	}
	return list
}

// Resolve finds a provider by id or by its 1-based position in List
func (r *Registry) Resolve(idOrIndex string) (Entry, error) {
	for _, e := range r.List() {
		if e.ID == idOrIndex {
			return e, nil
		}
	}

	if n, err := strconv.Atoi(strings.TrimSpace(idOrIndex)); err == nil {
		list := r.List()
		if n >= 1 && n <= len(list) {
			return list[n-1], nil
		}
	}

	return Entry{}, &UnknownProviderError{ID: idOrIndex}
}
