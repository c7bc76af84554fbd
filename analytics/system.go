package analytics

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"challengeflow/dispute"
	"challengeflow/snapshot"
)

const unknownGroup = "unknown"

type groupTally struct {
	filed, won int
}

type jurisdictionTally struct {
	groupTally
	responseDays, responses int
}

type systemTally struct {
	filed, won, lost, pending int
	byViolation               map[string]*groupTally
	byJurisdiction            map[string]*jurisdictionTally
	byChallenge               map[string]*groupTally
}

func newSystemTally() *systemTally {
	return &systemTally{
		byViolation:    make(map[string]*groupTally),
		byJurisdiction: make(map[string]*jurisdictionTally),
		byChallenge:    make(map[string]*groupTally),
	}
}

func groupKey(s string) string {
	if s == "" {
		return unknownGroup
	}
	return s
}

func tallyFor[T any](m map[string]*T, key string) *T {
	t, ok := m[key]
	if !ok {
		t = new(T)
		m[key] = t
	}
	return t
}

func (t *systemTally) add(rec dispute.Record) {
	outcome := rec.Status().Outcome()
	won := outcome == dispute.OutcomeWon

	t.filed++
	switch outcome {
	case dispute.OutcomeWon:
		t.won++
	case dispute.OutcomeLost:
		t.lost++
	case dispute.OutcomeOpen:
		t.pending++
	}

	var challengeType string
	var submitted, responded *time.Time
	if c := rec.Challenge; c != nil {
		challengeType = c.ChallengeType
		submitted, responded = c.SubmissionDate, c.ResponseDate
	}

	for _, g := range []*groupTally{
		tallyFor(t.byViolation, groupKey(rec.ViolationType)),
		tallyFor(t.byChallenge, groupKey(challengeType)),
	} {
		g.filed++
		if won {
			g.won++
		}
	}

	j := tallyFor(t.byJurisdiction, groupKey(rec.JurisdictionCode))
	j.filed++
	if won {
		j.won++
	}
	if days, ok := responseDays(submitted, responded); ok {
		j.responseDays += days
		j.responses++
	}
}

// responseDays is the ceiling-rounded number of days between submission and
// response. Only positive spans count.
func responseDays(submitted, responded *time.Time) (int, bool) {
	if submitted == nil || responded == nil {
		return 0, false
	}
	days := int(math.Ceil(responded.Sub(*submitted).Hours() / 24))
	return days, days > 0
}

func groupStats(m map[string]*groupTally) []snapshot.GroupStat {
	out := make([]snapshot.GroupStat, 0, len(m))
	for k, g := range m {
		out = append(out, snapshot.GroupStat{
			Key:         k,
			Filed:       g.filed,
			Won:         g.won,
			SuccessRate: percent(g.won, g.filed),
		})
	}
	slices.SortFunc(out, func(a, b snapshot.GroupStat) int {
		return cmp.Or(cmp.Compare(b.Filed, a.Filed), cmp.Compare(a.Key, b.Key))
	})
	return out
}

func jurisdictionStats(m map[string]*jurisdictionTally) []snapshot.JurisdictionStat {
	out := make([]snapshot.JurisdictionStat, 0, len(m))
	for k, j := range m {
		avg := 0
		if j.responses > 0 {
			avg = int(math.Round(float64(j.responseDays) / float64(j.responses)))
		}
		out = append(out, snapshot.JurisdictionStat{
			Code:            k,
			Filed:           j.filed,
			Won:             j.won,
			SuccessRate:     percent(j.won, j.filed),
			AvgResponseDays: avg,
		})
	}
	slices.SortFunc(out, func(a, b snapshot.JurisdictionStat) int {
		return cmp.Or(cmp.Compare(b.Filed, a.Filed), cmp.Compare(a.Code, b.Code))
	})
	return out
}

func (t *systemTally) snapshot(period snapshot.Period, start, end time.Time) snapshot.Snapshot {
	return snapshot.Snapshot{
		Period:             period,
		PeriodStart:        start,
		PeriodEnd:          end,
		TotalFiled:         t.filed,
		TotalWon:           t.won,
		TotalLost:          t.lost,
		TotalPending:       t.pending,
		OverallSuccessRate: successRate(t.won, t.lost),
		ByViolationType:    groupStats(t.byViolation),
		ByJurisdiction:     jurisdictionStats(t.byJurisdiction),
		ByChallengeType:    groupStats(t.byChallenge),
	}
}

// SystemAnalytics returns the cross-company snapshot for [start, end]. A
// snapshot stored for (period, start) within the cache TTL is returned as is
// without touching the record store; otherwise it is recomputed and
// overwritten.
func (s *Service) SystemAnalytics(ctx context.Context, period snapshot.Period, start, end time.Time) (out snapshot.Snapshot, err error) {
	defer s.observe(opSystem, time.Now(), &err)

	if !period.Valid() {
		return snapshot.Snapshot{}, fmt.Errorf("%w: %q", snapshot.ErrInvalidPeriod, period)
	}
	if end.Before(start) {
		return snapshot.Snapshot{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	key := snapshot.Key{Period: period, PeriodStart: start}
	cached, ok, err := s.snapshots.Lookup(ctx, key)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	s.metrics.SnapshotLookup(ok)
	if ok {
		s.logger.Debug("system snapshot cache hit", slog.String("key", key.String()))
		return cached, nil
	}

	t := newSystemTally()
	filter := dispute.Filter{SubmittedOnly: true, SubmissionDate: dispute.Between(start, end)}
	if err = s.scan(ctx, opSystem, filter, t.add); err != nil {
		return snapshot.Snapshot{}, err
	}

	saved, err := s.snapshots.Put(ctx, t.snapshot(period, start, end))
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	s.logger.Info("system snapshot recomputed",
		slog.String("key", key.String()),
		slog.Int("filed", saved.TotalFiled),
	)
	return saved, nil
}
