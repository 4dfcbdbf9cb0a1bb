package utils

import "math"

// RoundWithTwoDecimalPlace rounds percentages and hour figures before they
// leave an API boundary or land in a report.
func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return math.Round(f*100) / 100
}
