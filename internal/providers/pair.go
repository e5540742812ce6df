package providers

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/curry/internal/cache"
)

// PairSource fetches a single rate for one currency pair
type PairSource interface {
	FetchRate(ctx context.Context, transaction, payment string) (float64, error)
}

// PairProvider caches one entry per currency pair in front of a PairSource
type PairProvider struct {
	id     string
	source PairSource
	opts   Options
	log    zerolog.Logger
}

// NewPairProvider wraps source with per-pair caching
func NewPairProvider(id string, source PairSource, opts Options) *PairProvider {
	opts = opts.withDefaults()
	return &PairProvider{
		id:     id,
		source: source,
		opts:   opts,
		log:    opts.Logger.With().Str("provider", id).Logger(),
	}
}

// ID returns the provider identifier
func (p *PairProvider) ID() string {
	return p.id
}

// ExchangeRate returns the cached rate for the pair when it is still fresh,
// otherwise fetches it from the source and updates the cache.
func (p *PairProvider) ExchangeRate(ctx context.Context, transaction, payment string) (float64, error) {
	pairs := p.load()

	if !p.opts.RefreshCache {
		if e, ok := pairs.Get(transaction, payment); ok && e.Rate > 0 &&
			!cache.Expired(e.Timestamp, p.opts.CacheTimeout, p.opts.Now()) {
			p.log.Debug().Str("from", transaction).Str("to", payment).Msg("cache hit")
			return e.Rate, nil
		}
	}

	rate, err := p.source.FetchRate(ctx, transaction, payment)
	if err != nil {
		return 0, err
	}
	if !validRate(rate) {
		return 0, newProviderError(p.id, "invalid exchange rate")
	}

	pairs.Set(transaction, payment, cache.PairEntry{Rate: rate, Timestamp: p.opts.Now()})
	p.save(pairs)

	return rate, nil
}

func (p *PairProvider) load() cache.PairTable {
	pairs := cache.PairTable{}
	if p.opts.Cache == nil {
		return pairs
	}
	if _, err := p.opts.Cache.Load(p.id, &pairs); err != nil {
		p.log.Warn().Err(err).Msg("ignoring unreadable cache")
		return cache.PairTable{}
	}
	if pairs == nil {
		pairs = cache.PairTable{}
	}
	return pairs
}

func (p *PairProvider) save(pairs cache.PairTable) {
	if p.opts.Cache == nil {
		return
	}
	if err := p.opts.Cache.Save(p.id, pairs); err != nil {
		p.log.Warn().Err(err).Msg("failed to write cache")
	}
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate > 0
}
