package analytics

import "time"

// Config carries every tunable assumption of the engine. It is passed into
// the Service explicitly so tests can vary it.
type Config struct {
	// SavingsPerPoint is the assumed annual insurance-premium impact, in
	// currency units, of removing one severity point.
	SavingsPerPoint float64
	// PercentilePerPoint and PercentileCap shape the capped linear estimate
	// of safety-score percentile improvement.
	PercentilePerPoint float64
	PercentileCap      float64
	// TrendMonths is the trend window used when a caller passes months <= 0.
	TrendMonths int
	// MaxTrendMonths is the largest window OutcomeTrends accepts.
	MaxTrendMonths int
	// HighScore and LowScore bound the neutral zone of the triage heuristic:
	// scores >= HighScore predict a win, scores < LowScore predict a loss.
	HighScore float64
	LowScore  float64
	// Location defines calendar month boundaries.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		SavingsPerPoint:    800,
		PercentilePerPoint: 0.5,
		PercentileCap:      15,
		TrendMonths:        12,
		MaxTrendMonths:     120,
		HighScore:          60,
		LowScore:           40,
		Location:           time.UTC,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TrendMonths <= 0 {
		c.TrendMonths = d.TrendMonths
	}
	if c.MaxTrendMonths <= 0 {
		c.MaxTrendMonths = max(d.MaxTrendMonths, c.TrendMonths)
	}
	if c.HighScore == 0 && c.LowScore == 0 {
		c.HighScore, c.LowScore = d.HighScore, d.LowScore
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	return c
}
