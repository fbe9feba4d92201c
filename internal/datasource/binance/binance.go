// Package binance fetches daily klines from the Binance spot REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newthinker/swingbot/internal/core"
)

// DefaultBaseURL is the public spot API
const DefaultBaseURL = "https://api.binance.com"

// pageLimit is the most klines one request returns
const pageLimit = 1000

var validSymbol = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)

// Binance implements datasource.Source over /api/v3/klines
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a Binance source. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (b *Binance) Name() string {
	return "binance"
}

// FetchHistory pages through daily klines of symbol (e.g. BTCUSDT) between
// start and end. Bars are stamped at their UTC open date.
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.Series, error) {
	symbol = strings.ToUpper(symbol)
	if !validSymbol.MatchString(symbol) {
		return core.Series{}, core.Errorf(core.ErrSymbolNotFound, "invalid symbol format: %q", symbol)
	}
	if end.IsZero() {
		end = time.Now()
	}

	series := core.Series{Symbol: symbol}
	from := start
	for !from.After(end) {
		klines, err := b.fetchPage(ctx, symbol, from, end)
		if err != nil {
			return core.Series{}, err
		}
		for _, k := range klines {
			bar, err := toBar(k)
			if err != nil {
				return core.Series{}, core.Errorf(core.ErrInvalidData, "%s: %v", symbol, err)
			}
			series.Bars = append(series.Bars, bar)
		}
		if len(klines) < pageLimit {
			break
		}
		from = series.Bars[len(series.Bars)-1].Time.AddDate(0, 0, 1)
	}

	if series.Len() == 0 {
		return core.Series{}, core.Errorf(core.ErrNoData, "no klines for symbol: %s", symbol)
	}
	return series, nil
}

func (b *Binance) fetchPage(ctx context.Context, symbol string, from, end time.Time) ([][]any, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1d")
	q.Set("startTime", fmt.Sprint(from.UnixMilli()))
	q.Set("endTime", fmt.Sprint(end.UnixMilli()))
	q.Set("limit", fmt.Sprint(pageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, core.Errorf(core.ErrSourceFailed, "fetching klines: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		// Binance answers unknown symbols with 400 {"code":-1121}
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, core.Errorf(core.ErrSymbolNotFound, "%s: %s", symbol, apiErr.Msg)
	case resp.StatusCode != http.StatusOK:
		return nil, core.Errorf(core.ErrSourceFailed, "%s: unexpected status: %d", symbol, resp.StatusCode)
	}

	var klines [][]any
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, core.Errorf(core.ErrSourceFailed, "decoding response: %v", err)
	}
	return klines, nil
}

// toBar converts [openTime, open, high, low, close, volume, ...]
func toBar(k []any) (core.Bar, error) {
	if len(k) < 6 {
		return core.Bar{}, fmt.Errorf("kline has %d fields, want at least 6", len(k))
	}
	openTime, ok := k[0].(float64)
	if !ok {
		return core.Bar{}, fmt.Errorf("kline open time %v", k[0])
	}

	var vals [5]float64
	for i := range vals {
		s, ok := k[i+1].(string)
		if !ok {
			return core.Bar{}, fmt.Errorf("kline field %d is not a string", i+1)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return core.Bar{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		vals[i] = d.InexactFloat64()
	}

	t := time.UnixMilli(int64(openTime)).UTC()
	return core.Bar{
		Time:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
