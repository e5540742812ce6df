// Package facades exposes a single entry point for rate lookups that hides
// which provider is active and how transport failures are reported.
package facades

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/curry/internal/providers"
)

//go:generate mockgen -source=../providers/providers.go -destination=provider_mock_test.go -package=facades

// FailedRate is returned in place of a rate when the lookup failed for a
// reason other than a provider error
const FailedRate = -1.0

// ExchangeRateFacade forwards lookups to the active provider
type ExchangeRateFacade struct {
	registry *providers.Registry
	provider providers.Provider
	log      zerolog.Logger
}

// NewExchangeRateFacade resolves idOrIndex in registry and builds the provider
func NewExchangeRateFacade(registry *providers.Registry, idOrIndex string, opts providers.Options, logger zerolog.Logger) (*ExchangeRateFacade, error) {
	f := &ExchangeRateFacade{
		registry: registry,
		log:      logger,
	}
	provider, err := f.build(idOrIndex, opts)
	if err != nil {
		return nil, err
	}
	f.provider = provider
	f.log.Debug().Str("provider", provider.ID()).Msg("using provider")
	return f, nil
}

// SwitchProvider replaces the active provider. On error the current one is kept.
func (f *ExchangeRateFacade) SwitchProvider(idOrIndex string, opts providers.Options) error {
	provider, err := f.build(idOrIndex, opts)
	if err != nil {
		return err
	}
	f.log.Info().Msgf("switching provider: %s -> %s", f.provider.ID(), provider.ID())
	f.provider = provider
	return nil
}

// ProviderID returns the id of the active provider
func (f *ExchangeRateFacade) ProviderID() string {
	return f.provider.ID()
}

// ExchangeRate returns how many units of payment one unit of transaction buys.
// Provider errors are returned as-is. Anything else is logged and reported
// as FailedRate with a nil error.
func (f *ExchangeRateFacade) ExchangeRate(ctx context.Context, transaction, payment string) (float64, error) {
	transaction = normalize(transaction)
	payment = normalize(payment)

	rate, err := f.provider.ExchangeRate(ctx, transaction, payment)
	if err == nil {
		return rate, nil
	}

	var perr *providers.ProviderError
	if errors.As(err, &perr) {
		return 0, err
	}

	f.log.Error().
		Err(err).
		Str("provider", f.provider.ID()).
		Str("from", transaction).
		Str("to", payment).
		Msg("exchange rate lookup failed")
	return FailedRate, nil
}

func (f *ExchangeRateFacade) build(idOrIndex string, opts providers.Options) (providers.Provider, error) {
	entry, err := f.registry.Resolve(idOrIndex)
	if err != nil {
		return nil, err
	}
	opts.Logger = f.log
	return entry.Build(opts)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
