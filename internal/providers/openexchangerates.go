package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/briangreenhill/curry/internal/cache"
)

// OpenExchangeRatesID is the registry id of the openexchangerates.org provider
const OpenExchangeRatesID = "openexchangerates.org"

const openExchangeRatesBaseURL = "http://openexchangerates.org"

type openExchangeRatesLatest struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type openExchangeRatesError struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

type openExchangeRatesSource struct {
	req     requester
	baseURL string
	apiKey  string
}

// NewOpenExchangeRates creates the openexchangerates.org provider. It requires an API key.
func NewOpenExchangeRates(opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, newProviderError(OpenExchangeRatesID, "API key required")
	}
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("provider", OpenExchangeRatesID).Logger()
	src := &openExchangeRatesSource{
		req:     newRequester(opts, log),
		baseURL: opts.baseURL(openExchangeRatesBaseURL),
		apiKey:  opts.APIKey,
	}
	return NewTableProvider(OpenExchangeRatesID, src, opts), nil
}

func (s *openExchangeRatesSource) FetchTable(ctx context.Context, prev *cache.Table) (*cache.Table, bool, error) {
	endpoint := fmt.Sprintf("%s/api/latest.json?app_id=%s", s.baseURL, url.QueryEscape(s.apiKey))

	resp, err := s.req.get(ctx, endpoint, conditionalHeader(prev))
	if err != nil {
		return nil, false, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, true, nil
	default:
		return nil, false, s.statusError(resp)
	}

	var latest openExchangeRatesLatest
	if err := json.Unmarshal(resp.Body, &latest); err != nil || latest.Base == "" || latest.Rates == nil {
		return nil, false, newProviderError(OpenExchangeRatesID, "unable to decode json response")
	}

	return &cache.Table{
		Base:         latest.Base,
		Rates:        latest.Rates,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, false, nil
}

func (s *openExchangeRatesSource) statusError(resp *response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return newProviderError(OpenExchangeRatesID, "non-existent resource requested")
	case http.StatusUnauthorized:
		var body openExchangeRatesError
		_ = json.Unmarshal(resp.Body, &body)
		switch body.Message {
		case "missing_app_id", "invalid_app_id":
			return newProviderError(OpenExchangeRatesID, "invalid API key: %s", s.apiKey)
		case "not_allowed":
			return newProviderError(OpenExchangeRatesID, "not allowed to access requested feature")
		}
		return newProviderError(OpenExchangeRatesID, "unauthorized")
	case http.StatusTooManyRequests:
		return newProviderError(OpenExchangeRatesID, "access restricted for over-use")
	case http.StatusForbidden:
		return newProviderError(OpenExchangeRatesID, "access restricted")
	case http.StatusBadRequest:
		return newProviderError(OpenExchangeRatesID, "invalid base currency")
	}
	return newProviderError(OpenExchangeRatesID, "unexpected status code %d", resp.StatusCode)
}
