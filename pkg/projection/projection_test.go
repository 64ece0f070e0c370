package projection

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_OneYearReference(t *testing.T) {
	res, err := Project(50000, 12, 365)
	require.NoError(t, err)

	require.Len(t, res.Points, 13)
	first := res.Points[0]
	assert.Equal(t, 0, first.DaysElapsed)
	assert.Zero(t, first.Growth)
	assert.Equal(t, "0m", first.Label)

	last := res.Points[len(res.Points)-1]
	assert.Equal(t, 365, last.DaysElapsed)
	assert.Equal(t, "12m", last.Label)

	dailyRate := 0.12 / 365
	want := 50000 * (math.Pow(1+dailyRate, 365) - 1)
	assert.InEpsilon(t, want, res.TotalGrowth, 1e-6)
	assert.InEpsilon(t, want, last.Growth, 1e-6)
	assert.InEpsilon(t, 50000+want, res.FinalValue, 1e-6)
	// 12% compounded daily is ≈ 12.7474% effective.
	assert.InDelta(t, 6373.73, res.TotalGrowth, 0.01)
	assert.InDelta(t, res.TotalGrowth, TotalGrowth(50000, 12, 365), 1e-9)
}

func TestProject_Buckets(t *testing.T) {
	tests := []struct {
		period   int
		wantDays []int
	}{
		{60, []int{0, 30, 60}},
		{30, []int{0, 30}},
		{1, []int{0, 1}},
		{14, []int{0, 14}},
		{45, []int{0, 30, 45}},
		{100, []int{0, 30, 60, 100}},
		{365, []int{0, 30, 60, 90, 120, 150, 180, 210, 240, 270, 300, 330, 365}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.period), func(t *testing.T) {
			res, err := Project(1000, 10, tt.period)
			require.NoError(t, err)
			days := make([]int, len(res.Points))
			for i, p := range res.Points {
				days[i] = p.DaysElapsed
				assert.Equal(t, i, p.PeriodIndex)
				assert.LessOrEqual(t, p.DaysElapsed, tt.period)
				if i > 0 {
					assert.Greater(t, p.DaysElapsed, res.Points[i-1].DaysElapsed)
				}
			}
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestProject_Degenerate(t *testing.T) {
	res, err := Project(0, 12, 365)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.Zero(t, p.Growth)
		assert.Zero(t, p.TotalValue)
	}

	res, err = Project(1000, 0, 730)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.InDelta(t, 1000.0, p.TotalValue, 1e-12)
		assert.Zero(t, p.Growth)
	}
	assert.Zero(t, res.TotalGrowth)
}

func TestProject_GrowthNonNegativeAndMonotonic(t *testing.T) {
	res, err := Project(2500, 18, 730)
	require.NoError(t, err)
	for i, p := range res.Points {
		assert.GreaterOrEqual(t, p.Growth, 0.0)
		if i > 0 {
			assert.Greater(t, p.TotalValue, res.Points[i-1].TotalValue)
		}
	}
}

func TestProject_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		apy       float64
		period    int
		wantErr   error
	}{
		{"zero period", 100, 10, 0, ErrInvalidPeriod},
		{"negative period", 100, 10, -30, ErrInvalidPeriod},
		{"negative principal", -1, 10, 30, ErrInvalidPrincipal},
		{"nan principal", math.NaN(), 10, 30, ErrInvalidPrincipal},
		{"inf principal", math.Inf(1), 10, 30, ErrInvalidPrincipal},
		{"nan apy", 100, math.NaN(), 30, ErrInvalidAPY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(tt.principal, tt.apy, tt.period)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGrowthFactor(t *testing.T) {
	assert.InDelta(t, 1.0, GrowthFactor(12, 0), 1e-15)
	assert.InDelta(t, 1.0, GrowthFactor(0, 365), 1e-15)
	assert.InDelta(t, 1+0.1/365, GrowthFactor(10, 1), 1e-15)
	assert.Equal(t, 1, Buckets(10))
	assert.Equal(t, 2, Buckets(45))
}
