package collector

import (
	"errors"
	"fmt"

	"PortfolioSentinel/internal/model"
)

// ErrUnsupported is returned by a provider that cannot supply a data kind.
var ErrUnsupported = errors.New("not supported by provider")

// Fundamentals are the balance-sheet figures the runway calculator needs.
// QuarterlyBurn is the latest quarterly free cash flow; negative means outflow.
type Fundamentals struct {
	CashOnHand    float64
	QuarterlyBurn float64
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchWeeklyBars(symbol string, weeks int) ([]model.OHLCV, error)
	FetchCurrentPrice(symbol string) (float64, error)
	FetchFundamentals(symbol string) (*Fundamentals, error)
	Name() string
}

// NewFetcher picks a provider by name. An empty provider means REST when a
// base URL is configured and Yahoo otherwise.
func NewFetcher(provider, baseURL, apiKey, proxyURL string) (Fetcher, error) {
	if provider == "" {
		provider = "yahoo"
		if baseURL != "" {
			provider = "rest"
		}
	}
	switch provider {
	case "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "rest":
		if baseURL == "" {
			return nil, errors.New("rest provider needs a base url")
		}
		return NewRESTFetcher(baseURL, apiKey, proxyURL), nil
	case "mock":
		return &MockFetcher{Price: 10, Fundamentals: &Fundamentals{CashOnHand: 50_000_000, QuarterlyBurn: -3_000_000}}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}
