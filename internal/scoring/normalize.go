package scoring

import (
	"math"
	"time"
)

// Reference counts for log-magnitude normalization of heavy-tailed totals.
const (
	starsReference = 1000.0
	forksReference = 500.0
)

// activityWindow is the lookback for recency and activity factors.
const activityWindow = 180 * 24 * time.Hour

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LogMagnitude compresses an unbounded count into [0,1] as
// ln(1+count)/ln(1+reference). Unlike a linear cap, a single viral outlier
// cannot saturate the result on its own.
func LogMagnitude(count, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return clamp01(math.Log1p(count) / math.Log1p(reference))
}

// Ratio divides numerator by denominator, clamped to [0,1]. A zero
// denominator yields exactly 0.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return clamp01(numerator / denominator)
}

// CappedCount normalizes a count against a cap: count/cap, clamped to [0,1].
func CappedCount(count, cap float64) float64 {
	return Ratio(count, cap)
}

// RecencyDecay scores how recent a set of timestamps is relative to now over
// the given window: 1 - min(meanAgeDays/windowDays, 1). An empty set yields
// 0; no activity earns no recency credit.
func RecencyDecay(now time.Time, timestamps []time.Time, window time.Duration) float64 {
	if len(timestamps) == 0 {
		return 0
	}
	var totalDays float64
	for _, ts := range timestamps {
		totalDays += now.Sub(ts).Hours() / 24
	}
	meanDays := totalDays / float64(len(timestamps))
	windowDays := window.Hours() / 24
	return clamp01(1 - math.Min(meanDays/windowDays, 1))
}
