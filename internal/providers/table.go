package providers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/curry/internal/cache"
)

// TableSource fetches a full rate table. When prev is non-nil the request is
// conditional on its validators; notModified reports a 304.
type TableSource interface {
	FetchTable(ctx context.Context, prev *cache.Table) (table *cache.Table, notModified bool, err error)
}

// TableProvider keeps one rate table per provider and derives every pair from it
type TableProvider struct {
	id     string
	source TableSource
	opts   Options
	log    zerolog.Logger

	current *cache.Table
}

// NewTableProvider wraps source with table caching and cross-rate computation
func NewTableProvider(id string, source TableSource, opts Options) *TableProvider {
	opts = opts.withDefaults()
	return &TableProvider{
		id:     id,
		source: source,
		opts:   opts,
		log:    opts.Logger.With().Str("provider", id).Logger(),
	}
}

// ID returns the provider identifier
func (p *TableProvider) ID() string {
	return p.id
}

// ExchangeRate derives the pair rate from the provider's table
func (p *TableProvider) ExchangeRate(ctx context.Context, transaction, payment string) (float64, error) {
	if transaction == payment {
		return 1, nil
	}

	table, err := p.table(ctx)
	if err != nil {
		return 0, err
	}
	return crossRate(p.id, table, transaction, payment)
}

func (p *TableProvider) table(ctx context.Context) (*cache.Table, error) {
	cached := p.current
	if cached == nil {
		cached = p.load()
	}

	if cached != nil && len(cached.Rates) == 0 {
		cached = nil
	}

	if cached != nil && !p.opts.RefreshCache &&
		!cache.Expired(cached.Timestamp, p.opts.CacheTimeout, p.opts.Now()) {
		p.current = cached
		return cached, nil
	}

	fresh, notModified, err := p.source.FetchTable(ctx, cached)
	if err != nil {
		return nil, err
	}

	if notModified {
		if cached == nil {
			return nil, newProviderError(p.id, "unexpected status code %d", http.StatusNotModified)
		}
		p.log.Debug().Msg("rate table not modified")
		cached.Timestamp = p.opts.Now()
		fresh = cached
	} else {
		p.log.Debug().Int("rates", len(fresh.Rates)).Msg("rate table replaced")
		fresh.Timestamp = p.opts.Now()
	}

	p.save(fresh)
	p.current = fresh
	return fresh, nil
}

func (p *TableProvider) load() *cache.Table {
	if p.opts.Cache == nil {
		return nil
	}
	var table cache.Table
	found, err := p.opts.Cache.Load(p.id, &table)
	if err != nil {
		p.log.Warn().Err(err).Msg("ignoring unreadable cache")
		return nil
	}
	if !found {
		return nil
	}
	return &table
}

func (p *TableProvider) save(table *cache.Table) {
	if p.opts.Cache == nil {
		return
	}
	if err := p.opts.Cache.Save(p.id, table); err != nil {
		p.log.Warn().Err(err).Msg("failed to write cache")
	}
}

// crossRate converts through the table's base currency.
// Rates are units of currency per 1 unit of base.
func crossRate(id string, table *cache.Table, transaction, payment string) (float64, error) {
	if transaction == payment {
		return 1, nil
	}

	lookup := func(code string) (float64, error) {
		if code == table.Base {
			return 1, nil
		}
		rate, ok := table.Rates[code]
		if !ok {
			return 0, newProviderError(id, "unknown currency: %s", code)
		}
		if !validRate(rate) {
			return 0, newProviderError(id, "invalid exchange rate")
		}
		return rate, nil
	}

	tRate, err := lookup(transaction)
	if err != nil {
		return 0, err
	}
	pRate, err := lookup(payment)
	if err != nil {
		return 0, err
	}

	switch {
	case transaction == table.Base:
		return pRate, nil
	case payment == table.Base:
		return 1 / tRate, nil
	default:
		return pRate * (1 / tRate), nil
	}
}

// conditionalHeader carries prev's validators, each only when present
func conditionalHeader(prev *cache.Table) http.Header {
	header := http.Header{}
	if prev == nil {
		return header
	}
	if prev.ETag != "" {
		header.Set("If-None-Match", prev.ETag)
	}
	if prev.LastModified != "" {
		header.Set("If-Modified-Since", prev.LastModified)
	}
	return header
}
