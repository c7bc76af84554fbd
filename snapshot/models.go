package snapshot

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("snapshot: invalid period")

// Period is the granularity of a system-wide snapshot window.
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	default:
		return false
	}
}

// ParsePeriod validates a period tag.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Window returns the calendar window of the period that contains t, in t's
// location. The end is the last instant before the next window.
func (p Period) Window(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	var start, next time.Time
	switch p {
	case PeriodQuarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start = time.Date(y, qm, 1, 0, 0, 0, 0, t.Location())
		next = start.AddDate(0, 3, 0)
	case PeriodYearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
		next = start.AddDate(1, 0, 0)
	default:
		start = time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
		next = start.AddDate(0, 1, 0)
	}
	return start, next.Add(-time.Nanosecond)
}

// Key identifies a snapshot row.
type Key struct {
	Period      Period
	PeriodStart time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Period, k.PeriodStart.UTC().Format(time.RFC3339Nano))
}

// GroupStat is one row of a violation-type or challenge-type breakdown.
type GroupStat struct {
	Key         string `json:"key"`
	Filed       int    `json:"filed"`
	Won         int    `json:"won"`
	SuccessRate int    `json:"successRate"`
}

// JurisdictionStat is one row of the jurisdiction breakdown.
type JurisdictionStat struct {
	Code            string `json:"jurisdictionCode"`
	Filed           int    `json:"filed"`
	Won             int    `json:"won"`
	SuccessRate     int    `json:"successRate"`
	AvgResponseDays int    `json:"avgResponseDays"`
}

// Snapshot is a cross-company aggregate for one period window.
type Snapshot struct {
	ID          string
	Period      Period
	PeriodStart time.Time
	PeriodEnd   time.Time

	TotalFiled         int
	TotalWon           int
	TotalLost          int
	TotalPending       int
	OverallSuccessRate int

	ByViolationType []GroupStat
	ByJurisdiction  []JurisdictionStat
	ByChallengeType []GroupStat

	// UpdatedAt drives freshness decisions.
	UpdatedAt time.Time
}

func (s Snapshot) Key() Key {
	return Key{Period: s.Period, PeriodStart: s.PeriodStart}
}
