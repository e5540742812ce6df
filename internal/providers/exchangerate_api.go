package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ExchangeRateAPIID is the registry id of the exchangerate-api.com provider
const ExchangeRateAPIID = "exchangerate-api.com"

const exchangeRateAPIBaseURL = "http://www.exchangerate-api.com"

type exchangeRateAPISource struct {
	req     requester
	baseURL string
	apiKey  string
}

// NewExchangeRateAPI creates the exchangerate-api.com provider. It requires an API key.
func NewExchangeRateAPI(opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, newProviderError(ExchangeRateAPIID, "API key required")
	}
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("provider", ExchangeRateAPIID).Logger()
	src := &exchangeRateAPISource{
		req:     newRequester(opts, log),
		baseURL: opts.baseURL(exchangeRateAPIBaseURL),
		apiKey:  opts.APIKey,
	}
	return NewPairProvider(ExchangeRateAPIID, src, opts), nil
}

func (s *exchangeRateAPISource) FetchRate(ctx context.Context, transaction, payment string) (float64, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?k=%s", s.baseURL,
		url.PathEscape(transaction), url.PathEscape(payment), url.QueryEscape(s.apiKey))

	resp, err := s.req.get(ctx, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, newProviderError(ExchangeRateAPIID, "unexpected status code %d", resp.StatusCode)
	}

	body := strings.TrimSpace(string(resp.Body))
	rate, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, newProviderError(ExchangeRateAPIID, "unable to parse exchange rate: %q", body)
	}

	// The API reports failures as negative codes in place of the rate
	switch rate {
	case -1:
		return 0, newProviderError(ExchangeRateAPIID, "invalid amount used")
	case -2:
		return 0, newProviderError(ExchangeRateAPIID, "invalid currency code: %s -> %s", transaction, payment)
	case -3:
		return 0, newProviderError(ExchangeRateAPIID, "invalid API key: %s", s.apiKey)
	case -4:
		return 0, newProviderError(ExchangeRateAPIID, "API query limit reached")
	case -5:
		return 0, newProviderError(ExchangeRateAPIID, "unresolved IP address used")
	}

	return rate, nil
}
