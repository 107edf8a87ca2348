package collector

import (
	"sync/atomic"
	"time"

	"PortfolioSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// A non-nil error field makes the matching call fail.
type MockFetcher struct {
	Price        float64
	WeeklyData   []model.OHLCV
	Fundamentals *Fundamentals

	PriceErr        error
	BarsErr         error
	FundamentalsErr error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many fetches were made, across all data kinds.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchWeeklyBars(_ string, weeks int) ([]model.OHLCV, error) {
	m.calls.Add(1)
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if m.WeeklyData != nil {
		return m.WeeklyData, nil
	}
	return generateMockBars(m.Price, weeks), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ string) (float64, error) {
	m.calls.Add(1)
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	return m.Price, nil
}

func (m *MockFetcher) FetchFundamentals(_ string) (*Fundamentals, error) {
	m.calls.Add(1)
	if m.FundamentalsErr != nil {
		return nil, m.FundamentalsErr
	}
	if m.Fundamentals == nil {
		return nil, ErrUnsupported
	}
	f := *m.Fundamentals
	return &f, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, 7*i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
