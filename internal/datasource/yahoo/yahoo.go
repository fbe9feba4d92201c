// Package yahoo fetches daily bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/swingbot/internal/core"
)

// DefaultBaseURL is the public chart endpoint
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches symbols like SPY, BRK-B, 600519.SH, 0700.HK, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.Errorf(core.ErrSymbolNotFound, "symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return core.Errorf(core.ErrSymbolNotFound, "invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements datasource.Source over the chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a Yahoo source. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches daily bars. Bars are stamped at their UTC date.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.Series, error) {
	if err := validateSymbol(symbol); err != nil {
		return core.Series{}, err
	}
	if end.IsZero() {
		end = time.Now()
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	endpoint := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(toYahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.Series{}, core.WrapError(core.ErrSourceFailed, err)
	}
	resp, err := y.client.Do(req)
	if err != nil {
		return core.Series{}, core.Errorf(core.ErrSourceFailed, "fetching history: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Series{}, core.Errorf(core.ErrSourceFailed, "%s: unexpected status: %d", symbol, resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.Series{}, core.Errorf(core.ErrSourceFailed, "decoding response: %v", err)
	}
	if result.Chart.Error != nil {
		return core.Series{}, core.Errorf(core.ErrSourceFailed, "yahoo error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return core.Series{}, core.Errorf(core.ErrNoData, "no data for symbol: %s", symbol)
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]

	series := core.Series{Symbol: symbol}
	for i, ts := range r.Timestamp {
		open, high, low, cls := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		if open == nil || high == nil || low == nil || cls == nil {
			continue // Skip missing data
		}
		var volume float64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}
		t := time.Unix(ts, 0).UTC()
		series.Bars = append(series.Bars, core.Bar{
			Time:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *cls,
			Volume: volume,
		})
	}
	if series.Len() == 0 {
		return core.Series{}, core.Errorf(core.ErrNoData, "no bars for symbol: %s", symbol)
	}
	return series, nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
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
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
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
