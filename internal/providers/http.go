package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

const userAgent = "curry/1.0"

type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// requester issues GET requests and dumps the responses at debug level
type requester struct {
	client *http.Client
	log    zerolog.Logger
}

func newRequester(opts Options, log zerolog.Logger) requester {
	return requester{client: opts.HTTPClient, log: log}
}

func (r requester) get(ctx context.Context, rawURL string, header http.Header) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", userAgent)

	r.log.Debug().Str("url", rawURL).Msg("request")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	r.dump(resp, body)
	return &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (r requester) dump(resp *http.Response, body []byte) {
	if r.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	headers := zerolog.Dict()
	for k := range resp.Header {
		headers.Str(k, resp.Header.Get(k))
	}
	r.log.Debug().
		Int("status", resp.StatusCode).
		Dict("headers", headers).
		Bytes("body", body).
		Msg("response")
}
