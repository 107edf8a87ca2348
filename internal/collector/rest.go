package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PortfolioSentinel/internal/model"
)

// RESTFetcher implements Fetcher against a generic market-data REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) endpoint(path, symbol string, limit int) string {
	q := url.Values{"symbol": {symbol}}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return f.BaseURL + path + "?" + q.Encode()
}

func (f *RESTFetcher) getJSON(endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented {
		return fmt.Errorf("%s: %w", endpoint, ErrUnsupported)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// FetchDailyBars is used as the weekly fallback.
func (f *RESTFetcher) FetchDailyBars(symbol string, days int) ([]model.OHLCV, error) {
	return f.fetchBars(f.endpoint("/api/v1/bars/daily", symbol, days))
}

func (f *RESTFetcher) FetchWeeklyBars(symbol string, weeks int) ([]model.OHLCV, error) {
	bars, err := f.fetchBars(f.endpoint("/api/v1/bars/weekly", symbol, weeks))
	if err != nil {
		// the API may only serve daily bars; aggregate them
		daily, dailyErr := f.FetchDailyBars(symbol, weeks*7)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		bars = aggregateDailyToWeekly(daily)
	}
	if len(bars) > weeks {
		bars = bars[len(bars)-weeks:]
	}
	return bars, nil
}

func (f *RESTFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	var result struct {
		Price float64 `json:"price"`
	}
	if err := f.getJSON(f.endpoint("/api/v1/quote", symbol, 0), &result); err != nil {
		return 0, fmt.Errorf("fetch current price: %w", err)
	}
	return result.Price, nil
}

func (f *RESTFetcher) FetchFundamentals(symbol string) (*Fundamentals, error) {
	var result struct {
		CashOnHand    *float64 `json:"cash_on_hand"`
		QuarterlyBurn *float64 `json:"quarterly_burn"`
	}
	if err := f.getJSON(f.endpoint("/api/v1/fundamentals", symbol, 0), &result); err != nil {
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}
	if result.CashOnHand == nil || result.QuarterlyBurn == nil {
		return nil, fmt.Errorf("fetch fundamentals: incomplete response for %s", symbol)
	}
	return &Fundamentals{CashOnHand: *result.CashOnHand, QuarterlyBurn: *result.QuarterlyBurn}, nil
}

func (f *RESTFetcher) fetchBars(endpoint string) ([]model.OHLCV, error) {
	var raw []restBar
	if err := f.getJSON(endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly folds chronological daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	var curKey int
	for _, d := range daily {
		y, w := d.Time.ISOWeek()
		key := y*100 + w
		if len(weekly) == 0 || key != curKey {
			weekly = append(weekly, d)
			curKey = key
			continue
		}
		wk := &weekly[len(weekly)-1]
		wk.High = max(wk.High, d.High)
		wk.Low = min(wk.Low, d.Low)
		wk.Close = d.Close
		wk.Volume += d.Volume
	}
	return weekly
}
