package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/briangreenhill/curry/internal/cache"
)

// OandaID is the registry id of the oanda.com rate table provider
const OandaID = "oanda.com"

const (
	oandaBaseURL  = "http://www.oanda.com"
	oandaBase     = "USD"
	oandaSelector = "#content_section table font"
)

var oandaCurrencies = []string{
	"ADF", "ADP", "AED", "AFN", "ALL", "AMD", "ANG", "AOA", "AON", "ARS",
	"ATS", "AUD", "AWG", "AZM", "AZN", "BAM", "BBD", "BDT", "BEF", "BGN",
	"BHD", "BIF", "BMD", "BND", "BOB", "BRL", "BSD", "BTN", "BWP", "BYR",
	"BZD", "CAD", "CDF", "CHF", "CLP", "CNY", "COP", "CRC", "CUC", "CUP",
	"CVE", "CYP", "CZK", "DEM", "DJF", "DKK", "DOP", "DZD", "ECS", "EEK",
	"EGP", "ESP", "ETB", "EUR", "FIM", "FJD", "FKP", "FRF", "GBP", "GEL",
	"GHC", "GHS", "GIP", "GMD", "GNF", "GRD", "GTQ", "GYD", "HKD", "HNL",
	"HRK", "HTG", "HUF", "IDR", "IEP", "ILS", "INR", "IQD", "IRR", "ISK",
	"ITL", "JMD", "JOD", "JPY", "KES", "KGS", "KHR", "KMF", "KPW", "KRW",
	"KWD", "KYD", "KZT", "LAK", "LBP", "LKR", "LRD", "LSL", "LTL", "LUF",
	"LVL", "LYD", "MAD", "MDL", "MGA", "MGF", "MKD", "MMK", "MNT", "MOP",
	"MRO", "MTL", "MUR", "MVR", "MWK", "MXN", "MYR", "MZM", "MZN", "NAD",
	"NGN", "NIO", "NLG", "NOK", "NPR", "NZD", "OMR", "PAB", "PEN", "PGK",
	"PHP", "PKR", "PLN", "PTE", "PYG", "QAR", "ROL", "RON", "RSD", "RUB",
	"RWF", "SAR", "SBD", "SCR", "SDD", "SDG", "SDP", "SEK", "SGD", "SHP",
	"SIT", "SKK", "SLL", "SOS", "SRD", "SRG", "STD", "SVC", "SYP", "SZL",
	"THB", "TJS", "TMM", "TMT", "TND", "TOP", "TRL", "TRY", "TTD", "TWD",
	"TZS", "UAH", "UGX", "USD", "UYU", "UZS", "VEB", "VEF", "VND", "VUV",
	"WST", "XAF", "XAG", "XAU", "XCD", "XEU", "XOF", "XPD", "XPF", "XPT",
	"YER", "YUN", "ZAR", "ZMK", "ZMW", "ZWD",
}

type oandaSource struct {
	req     requester
	baseURL string
	now     func() time.Time
}

// NewOanda creates the oanda.com provider, which scrapes the HTML rate table
func NewOanda(opts Options) (Provider, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With().Str("provider", OandaID).Logger()
	src := &oandaSource{
		req:     newRequester(opts, log),
		baseURL: opts.baseURL(oandaBaseURL),
		now:     opts.Now,
	}
	return NewTableProvider(OandaID, src, opts), nil
}

func (s *oandaSource) url() string {
	return fmt.Sprintf("%s/currency/table?date=%s&date_fmt=us&exch=%s&sel_list=%s&value=1&format=CSV&redirected=1",
		s.baseURL, s.now().Format("01/02/06"), oandaBase, strings.Join(oandaCurrencies, "_"))
}

func (s *oandaSource) FetchTable(ctx context.Context, prev *cache.Table) (*cache.Table, bool, error) {
	resp, err := s.req.get(ctx, s.url(), conditionalHeader(prev))
	if err != nil {
		return nil, false, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, true, nil
	default:
		return nil, false, newProviderError(OandaID, "unable to fetch data")
	}

	rates, err := parseOandaTable(resp.Body)
	if err != nil {
		return nil, false, err
	}

	return &cache.Table{
		Base:         oandaBase,
		Rates:        rates,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, false, nil
}

// parseOandaTable extracts the CSV block embedded in the page. After a header
// row, every row is: name, code, inverse rate, rate.
func parseOandaTable(html []byte) (map[string]float64, error) {
	errTable := newProviderError(OandaID, "unable to parse rate table")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errTable
	}
	text := strings.TrimSpace(doc.Find(oandaSelector).First().Text())
	if text == "" {
		return nil, errTable
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rates := make(map[string]float64)
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errTable
		}
		if header {
			header = false
			continue
		}
		if len(row) != 4 {
			return nil, errTable
		}
		code := strings.TrimSpace(row[1])
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil || code == "" {
			return nil, errTable
		}
		rates[code] = rate
	}

	if len(rates) == 0 {
		return nil, errTable
	}
	return rates, nil
}
