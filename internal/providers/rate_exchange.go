package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RateExchangeID is the registry id of the rate-exchange.appspot.com provider
const RateExchangeID = "rate-exchange.appspot.com"

const rateExchangeBaseURL = "http://rate-exchange.appspot.com"

type rateExchangeResponse struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Rate json.Number `json:"rate"`
	Err  string      `json:"err"`
}

type rateExchangeSource struct {
	req     requester
	baseURL string
}

// NewRateExchange creates the rate-exchange.appspot.com provider
func NewRateExchange(opts Options) (Provider, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("provider", RateExchangeID).Logger()
	src := &rateExchangeSource{
		req:     newRequester(opts, log),
		baseURL: opts.baseURL(rateExchangeBaseURL),
	}
	return NewPairProvider(RateExchangeID, src, opts), nil
}

func (s *rateExchangeSource) FetchRate(ctx context.Context, transaction, payment string) (float64, error) {
	q := url.Values{}
	q.Set("from", transaction)
	q.Set("to", payment)

	resp, err := s.req.get(ctx, fmt.Sprintf("%s/currency?%s", s.baseURL, q.Encode()), nil)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		return 0, newProviderError(RateExchangeID, "application is temporarily over its serving quota")
	default:
		return 0, newProviderError(RateExchangeID, "unexpected status code %d", resp.StatusCode)
	}

	var body rateExchangeResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return 0, newProviderError(RateExchangeID, "unable to decode json response")
	}
	if body.Err != "" {
		return 0, newProviderError(RateExchangeID, "%s", body.Err)
	}
	if body.Rate == "" {
		return 0, newProviderError(RateExchangeID, "unable to extract rate key from json response")
	}

	rate, err := body.Rate.Float64()
	if err != nil {
		return 0, newProviderError(RateExchangeID, "unable to convert exchange rate to float")
	}
	return rate, nil
}
