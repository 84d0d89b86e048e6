package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/trendbot/internal/collector"
	"github.com/newthinker/trendbot/internal/core"
)

const (
	baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches tickers like AAPL, BRK-B, ^GSPC, EURUSD=X, 0700.HK
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9=-]{1,12}(\.[A-Za-z]{1,4})?$`)

var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "4h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo fetches bars from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// Option configures the collector
type Option func(*Yahoo)

// WithBaseURL points the collector at another chart endpoint
func WithBaseURL(u string) Option {
	return func(y *Yahoo) { y.baseURL = u }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) Option {
	return func(y *Yahoo) { y.client = c }
}

// New creates a new Yahoo collector
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// Fetch downloads range=period at interval and drops rows with missing prices
func (y *Yahoo) Fetch(ctx context.Context, symbol, period, interval string) ([]core.Bar, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	if !validRanges[period] {
		return nil, core.Rejectf(core.ErrCollectorFailed, "unsupported period %q", period)
	}
	if !validIntervals[interval] {
		return nil, core.Rejectf(core.ErrCollectorFailed, "unsupported interval %q", interval)
	}

	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", interval)
	endpoint := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	req.Header.Set("User-Agent", "trendbot/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	var result chartResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if decodeErr == nil && result.Chart.Error != nil {
		return nil, core.Rejectf(core.ErrCollectorFailed, "yahoo error: %s", result.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.Rejectf(core.ErrCollectorFailed, "unexpected status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", decodeErr))
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.Rejectf(core.ErrNoData, "no data for symbol: %s", symbol)
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]

	data := make([]core.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, high, low, cl := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		if open == nil || high == nil || low == nil || cl == nil {
			continue // Skip missing data
		}
		var volume float64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}
		data = append(data, core.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *cl,
			Volume: volume,
		})
	}

	if len(data) == 0 {
		return nil, core.Rejectf(core.ErrNoData, "no complete bars for symbol: %s", symbol)
	}
	return collector.Normalize(data), nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
