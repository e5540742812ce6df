package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// YahooID is the registry id of the Yahoo Finance quotes provider
const YahooID = "finance.yahoo.com"

const yahooBaseURL = "http://download.finance.yahoo.com"

type yahooSource struct {
	req     requester
	baseURL string
}

// NewYahoo creates the finance.yahoo.com provider
func NewYahoo(opts Options) (Provider, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("provider", YahooID).Logger()
	src := &yahooSource{
		req:     newRequester(opts, log),
		baseURL: opts.baseURL(yahooBaseURL),
	}
	return NewPairProvider(YahooID, src, opts), nil
}

func (s *yahooSource) FetchRate(ctx context.Context, transaction, payment string) (float64, error) {
	q := url.Values{}
	q.Set("s", transaction+payment+"=X")
	q.Set("f", "l1")

	resp, err := s.req.get(ctx, fmt.Sprintf("%s/d/quotes.csv?%s", s.baseURL, q.Encode()), nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, newProviderError(YahooID, "unknown API error")
	}

	body := strings.TrimSpace(string(resp.Body))
	rate, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, newProviderError(YahooID, "%s", body)
	}
	return rate, nil
}
