package domain

import "math"

// CompletionPercentage returns the share of nominal seconds spent before the
// attempt ended, in [0, 100]. An attempt whose countdown never ticked scores 0.
func CompletionPercentage(nominal, remaining int, ticked bool) float64 {
	if nominal <= 0 || !ticked {
		return 0
	}
	if remaining < 0 {
		remaining = 0
	}
	pct := float64(nominal-remaining) / float64(nominal) * 100
	return math.Max(0, math.Min(pct, 100))
}

// RoundTenth rounds v to one decimal place for display.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
