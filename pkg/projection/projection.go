// Package projection computes the compounding staking reward series shown on
// the chart.
//
// Growth compounds daily at apy/100/365:
//
//	growthFactor(d) = (1 + apy/100/365)^d
//
// The same factor drives every point of the series and the total growth
// metric, which is the growth of the final point.
package projection

import (
	"errors"
	"fmt"
	"math"
)

// BucketDays is the width of one chart bucket.
const BucketDays = 30

var (
	ErrInvalidPeriod    = errors.New("period must be at least one day")
	ErrInvalidPrincipal = errors.New("principal must be a finite non-negative number")
	ErrInvalidAPY       = errors.New("apy must be a finite number")
)

// Point is one chart sample.
type Point struct {
	PeriodIndex int     `json:"period_index"`
	DaysElapsed int     `json:"days_elapsed"`
	Principal   float64 `json:"principal"`
	Growth      float64 `json:"growth"`
	TotalValue  float64 `json:"total_value"`
	Label       string  `json:"label"`
}

// Result is a full projection. Points is never mutated after Project
// returns.
type Result struct {
	Principal   float64 `json:"principal"`
	APY         float64 `json:"apy"`
	PeriodDays  int     `json:"period_days"`
	Points      []Point `json:"points"`
	TotalGrowth float64 `json:"total_growth"`
	FinalValue  float64 `json:"final_value"`
}

// GrowthFactor is the multiplier applied to the principal after days.
func GrowthFactor(apyPercent float64, days int) float64 {
	if days <= 0 {
		return 1
	}
	return math.Pow(1+apyPercent/100/365, float64(days))
}

// TotalGrowth is the reward earned on principal over periodDays.
func TotalGrowth(principal, apyPercent float64, periodDays int) float64 {
	return principal*GrowthFactor(apyPercent, periodDays) - principal
}

// Buckets is the number of 30-day buckets for periodDays, at least one.
func Buckets(periodDays int) int {
	n := int(math.Round(float64(periodDays) / BucketDays))
	if n < 1 {
		return 1
	}
	return n
}

// Project builds the series for [0, periodDays]. It returns Buckets+1
// points; the last one always sits at periodDays.
func Project(principal, apyPercent float64, periodDays int) (Result, error) {
	if periodDays < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidPeriod, periodDays)
	}
	if principal < 0 || math.IsNaN(principal) || math.IsInf(principal, 0) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidPrincipal, principal)
	}
	if math.IsNaN(apyPercent) || math.IsInf(apyPercent, 0) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidAPY, apyPercent)
	}

	n := Buckets(periodDays)
	points := make([]Point, 0, n+1)
	for m := 0; m <= n; m++ {
		days := min(periodDays, BucketDays*m)
		if m == n {
			days = periodDays
		}
		total := principal * GrowthFactor(apyPercent, days)
		points = append(points, Point{
			PeriodIndex: m,
			DaysElapsed: days,
			Principal:   principal,
			Growth:      total - principal,
			TotalValue:  total,
			Label:       fmt.Sprintf("%dm", m),
		})
	}

	last := points[len(points)-1]
	return Result{
		Principal:   principal,
		APY:         apyPercent,
		PeriodDays:  periodDays,
		Points:      points,
		TotalGrowth: last.Growth,
		FinalValue:  last.TotalValue,
	}, nil
}
