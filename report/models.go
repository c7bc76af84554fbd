package report

import "time"

// MonthlyReport is the persisted per-company, per-calendar-month outcome
// snapshot. One row exists per (CompanyID, Month, Year); regeneration
// overwrites it.
type MonthlyReport struct {
	ID        string
	CompanyID string
	Month     int
	Year      int

	// ChallengesFiled counts challenges submitted during the month.
	ChallengesFiled int
	// ChallengesWon and ChallengesLost count challenges resolved during the
	// month, whenever they were filed.
	ChallengesWon  int
	ChallengesLost int
	// ChallengesPending is the current open state of challenges filed during
	// the month. It is read at generation time, so regenerating an old report
	// can change it while won/lost stay put.
	ChallengesPending int

	SeverityPointsRemoved          float64
	EstimatedPercentileImprovement float64
	EstimatedInsuranceSavings      float64

	// CreatedAt is set on first generation and survives regeneration.
	CreatedAt time.Time
}

// SameFigures reports whether two reports carry identical computed values.
func (r MonthlyReport) SameFigures(o MonthlyReport) bool {
	r.ID, o.ID = "", ""
	r.CreatedAt, o.CreatedAt = time.Time{}, time.Time{}
	return r == o
}
