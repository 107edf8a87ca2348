package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/model"
)

func TestCalculateRunway_Bands(t *testing.T) {
	tests := []struct {
		name   string
		cash   float64
		burn   float64
		months float64
		status model.RunwayStatus
	}{
		{"five months is danger", 2_000_000, -1_200_000, 5, model.RunwayDanger},
		{"twenty months is healthy", 8_000_000, -1_200_000, 20, model.RunwayHealthy},
		{"twelve months is caution", 4_800_000, -1_200_000, 12, model.RunwayCaution},
		{"six months is caution", 2_400_000, -1_200_000, 6, model.RunwayCaution},
		{"zero cash is danger", 0, -300_000, 0, model.RunwayDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CalculateRunway(model.Float(tt.cash), model.Float(tt.burn))
			require.NotNil(t, r.Months)
			assert.InDelta(t, tt.months, *r.Months, 1e-9)
			assert.Equal(t, tt.status, r.Status)
			assert.False(t, r.Infinite)
		})
	}
}

func TestCalculateRunway_CashFlowPositive(t *testing.T) {
	for _, burn := range []float64{0, 250_000} {
		r := CalculateRunway(model.Float(1_000_000), model.Float(burn))
		assert.True(t, r.Infinite)
		assert.Nil(t, r.Months)
		assert.Equal(t, model.RunwayHealthy, r.Status)
		assert.True(t, r.AtLeast(18))
	}
}

func TestCalculateRunway_EdgeCases(t *testing.T) {
	r := CalculateRunway(model.Float(-5), model.Float(-100))
	assert.Equal(t, model.RunwayDanger, r.Status)
	assert.Contains(t, r.Flags, FlagNegativeCash)

	r = CalculateRunway(model.Float(math.NaN()), model.Float(-100))
	assert.Equal(t, model.RunwayDanger, r.Status)
	assert.Contains(t, r.Flags, FlagInvalidInput)

	r = CalculateRunway(model.Float(100), model.Float(math.Inf(-1)))
	assert.Equal(t, model.RunwayDanger, r.Status)

	r = CalculateRunway(model.Float(math.MaxFloat64), model.Float(-1e-300))
	assert.Equal(t, model.RunwayDanger, r.Status)
	assert.Contains(t, r.Flags, FlagInvalidInput)

	// the divisor underflows to zero
	r = CalculateRunway(model.Float(100), model.Float(-math.SmallestNonzeroFloat64))
	assert.Equal(t, model.RunwayDanger, r.Status)
	assert.Contains(t, r.Flags, FlagZeroDivisor)

	r = CalculateRunway(nil, model.Float(-100))
	assert.Equal(t, model.RunwayUnknown, r.Status)
	assert.Contains(t, r.Flags, FlagMissingInput)
	assert.False(t, r.AtLeast(1))
}

func TestRunwayStatusFor(t *testing.T) {
	assert.Equal(t, model.RunwayHealthy, RunwayStatusFor(12.01))
	assert.Equal(t, model.RunwayCaution, RunwayStatusFor(12))
	assert.Equal(t, model.RunwayCaution, RunwayStatusFor(6))
	assert.Equal(t, model.RunwayDanger, RunwayStatusFor(5.99))
}
