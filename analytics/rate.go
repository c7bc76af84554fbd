package analytics

import "math"

// percent returns round(part / whole * 100), or 0 when whole is not positive.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// successRate is the won share of resolved (won + lost) challenges.
func successRate(won, lost int) int {
	return percent(won, won+lost)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// savings converts removed severity points to currency, rounded to cents.
func (c Config) savings(points float64) float64 {
	return roundTo(points*c.SavingsPerPoint, 2)
}

// percentileImprovement is min(points * PercentilePerPoint, PercentileCap)
// rounded to one decimal, and 0 when nothing was removed.
func (c Config) percentileImprovement(points float64) float64 {
	if points <= 0 {
		return 0
	}
	return roundTo(math.Min(points*c.PercentilePerPoint, c.PercentileCap), 1)
}
