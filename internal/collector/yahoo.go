package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PortfolioSentinel/internal/model"
)

const (
	yahooChartURL      = "https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s"
	yahooTimeseriesURL = "https://query2.finance.yahoo.com/ws/fundamentals-timeseries/v1/finance/timeseries/%s?type=%s&period1=%d&period2=%d"

	yahooCashSeries = "quarterlyCashCashEquivalentsAndShortTermInvestments"
	yahooFCFSeries  = "quarterlyFreeCashFlow"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	now       func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:    newHTTPClient(proxyURL),
		SymbolMap: map[string]string{},
		now:       time.Now,
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: 30 * time.Second, Transport: transport}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote values are pointers because Yahoo sends null for missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) get(u string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (f *YahooFetcher) fetchChart(symbol, interval, rng string) (*yahooChart, error) {
	body, err := f.get(fmt.Sprintf(yahooChartURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng))
	if err != nil {
		return nil, err
	}
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, errors.New("yahoo: no data returned")
	}
	return &chart, nil
}

// parseChartBars turns a chart response into chronological bars, skipping null rows.
func parseChartBars(chart *yahooChart) []model.OHLCV {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // holidays and halted weeks
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}

func (f *YahooFetcher) FetchWeeklyBars(symbol string, weeks int) ([]model.OHLCV, error) {
	rng := "5y"
	switch {
	case weeks <= 26:
		rng = "6mo"
	case weeks <= 52:
		rng = "1y"
	case weeks <= 104:
		rng = "2y"
	}
	chart, err := f.fetchChart(symbol, "1wk", rng)
	if err != nil {
		return nil, err
	}
	bars := parseChartBars(chart)
	if len(bars) == 0 {
		return nil, errors.New("yahoo: no weekly bars")
	}
	if len(bars) > weeks {
		bars = bars[len(bars)-weeks:]
	}
	return bars, nil
}

func (f *YahooFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	chart, err := f.fetchChart(symbol, "1d", "5d")
	if err != nil {
		return 0, err
	}
	if p := chart.Chart.Result[0].Meta.RegularMarketPrice; p != nil && *p > 0 {
		return *p, nil
	}
	bars := parseChartBars(chart)
	if len(bars) == 0 {
		return 0, errors.New("yahoo: no price data")
	}
	return bars[len(bars)-1].Close, nil
}

// FetchFundamentals reads the latest quarterly cash and free cash flow from the
// fundamentals timeseries endpoint.
func (f *YahooFetcher) FetchFundamentals(symbol string) (*Fundamentals, error) {
	now := f.now()
	u := fmt.Sprintf(yahooTimeseriesURL, url.PathEscape(f.yahooSymbol(symbol)),
		strings.Join([]string{yahooCashSeries, yahooFCFSeries}, ","),
		now.AddDate(-2, 0, 0).Unix(), now.Unix())
	body, err := f.get(u)
	if err != nil {
		return nil, err
	}
	return parseTimeseries(body)
}

type yahooTimeseries struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
	} `json:"timeseries"`
}

type yahooSeriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

func parseTimeseries(body []byte) (*Fundamentals, error) {
	var ts yahooTimeseries
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, fmt.Errorf("yahoo decode timeseries: %w", err)
	}
	latest := map[string]*yahooSeriesPoint{}
	for _, res := range ts.Timeseries.Result {
		for _, name := range []string{yahooCashSeries, yahooFCFSeries} {
			raw, ok := res[name]
			if !ok {
				continue
			}
			var points []*yahooSeriesPoint
			if err := json.Unmarshal(raw, &points); err != nil {
				return nil, fmt.Errorf("yahoo decode %s: %w", name, err)
			}
			for _, p := range points {
				// asOfDate is ISO yyyy-mm-dd, so string order is date order
				if p != nil && (latest[name] == nil || p.AsOfDate > latest[name].AsOfDate) {
					latest[name] = p
				}
			}
		}
	}
	cash, fcf := latest[yahooCashSeries], latest[yahooFCFSeries]
	if cash == nil || fcf == nil {
		return nil, errors.New("yahoo: fundamentals incomplete")
	}
	return &Fundamentals{CashOnHand: cash.ReportedValue.Raw, QuarterlyBurn: fcf.ReportedValue.Raw}, nil
}
