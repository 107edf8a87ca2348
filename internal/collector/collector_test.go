package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_AllFields(t *testing.T) {
	m := &MockFetcher{Price: 12.5, Fundamentals: &Fundamentals{CashOnHand: 8e6, QuarterlyBurn: -1.2e6}}
	c := NewCollector(m, 40, time.Minute, zerolog.Nop())

	snap := c.Collect("LUNR")
	assert.Equal(t, "LUNR", snap.Symbol)
	require.NotNil(t, snap.CurrentPrice)
	assert.Equal(t, 12.5, *snap.CurrentPrice)
	assert.Len(t, snap.WeeklyCloses, 40)
	assert.Equal(t, 8e6, *snap.CashOnHand)
	assert.Equal(t, -1.2e6, *snap.QuarterlyBurn)
	assert.False(t, snap.Stale)
}

func TestCollect_FieldErrorsDegradeToNil(t *testing.T) {
	m := &MockFetcher{
		PriceErr:        errors.New("timeout"),
		BarsErr:         errors.New("timeout"),
		FundamentalsErr: ErrUnsupported,
	}
	snap := NewCollector(m, 40, time.Minute, zerolog.Nop()).Collect("X")
	assert.Nil(t, snap.CurrentPrice)
	assert.Empty(t, snap.WeeklyCloses)
	assert.Nil(t, snap.CashOnHand)
	assert.Nil(t, snap.QuarterlyBurn)
	assert.False(t, snap.Stale)
}

func TestCollect_NonPositivePriceIsMissing(t *testing.T) {
	snap := NewCollector(&MockFetcher{Price: 0}, 10, time.Minute, zerolog.Nop()).Collect("X")
	assert.Nil(t, snap.CurrentPrice)
}

func TestCollect_Memoizes(t *testing.T) {
	m := &MockFetcher{Price: 5, Fundamentals: &Fundamentals{CashOnHand: 1, QuarterlyBurn: 1}}
	c := NewCollector(m, 10, time.Minute, zerolog.Nop())

	first := c.Collect("X")
	calls := m.Calls()
	second := c.Collect("X")
	assert.Equal(t, calls, m.Calls())
	assert.Equal(t, first, second)

	// callers get copies
	*second.CurrentPrice = 99
	assert.Equal(t, 5.0, *c.Collect("X").CurrentPrice)

	c.Invalidate("X")
	c.Collect("X")
	assert.Greater(t, m.Calls(), calls)
}

func TestCollect_FallsBackToLastGood(t *testing.T) {
	m := &MockFetcher{Price: 5, Fundamentals: &Fundamentals{CashOnHand: 2e6, QuarterlyBurn: -1e6}}
	c := NewCollector(m, 10, 0, zerolog.Nop())
	c.Collect("X")

	m.PriceErr = errors.New("down")
	m.FundamentalsErr = errors.New("down")
	snap := c.Collect("X")
	require.NotNil(t, snap.CurrentPrice)
	assert.Equal(t, 5.0, *snap.CurrentPrice)
	assert.Equal(t, 2e6, *snap.CashOnHand)
	assert.Len(t, snap.WeeklyCloses, 10)
	assert.True(t, snap.Stale)
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", f.Name())

	f, err = NewFetcher("", "http://localhost:9000", "k", "")
	require.NoError(t, err)
	assert.Equal(t, "rest", f.Name())

	f, err = NewFetcher("mock", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "mock", f.Name())

	_, err = NewFetcher("rest", "", "", "")
	assert.Error(t, err)
	_, err = NewFetcher("bloomberg", "", "", "")
	assert.Error(t, err)
}
