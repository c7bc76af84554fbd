package analytics

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"challengeflow/dispute"
	"challengeflow/report"
)

type fakeStore struct {
	records []dispute.Record
	calls   atomic.Int32
}

func (f *fakeStore) Find(_ context.Context, filter dispute.Filter) iter.Seq2[dispute.Record, error] {
	f.calls.Add(1)
	return func(yield func(dispute.Record, error) bool) {
		for _, r := range f.records {
			if !filter.Match(r) {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

type failingStore struct {
	err error
}

func (f failingStore) Find(context.Context, dispute.Filter) iter.Seq2[dispute.Record, error] {
	return func(yield func(dispute.Record, error) bool) {
		yield(dispute.Record{}, f.err)
	}
}

type fakeReports struct {
	mu    sync.Mutex
	saved map[string]report.MonthlyReport
	seq   int
	err   error
}

func newFakeReports() *fakeReports {
	return &fakeReports{saved: make(map[string]report.MonthlyReport)}
}

func (f *fakeReports) Upsert(_ context.Context, rep report.MonthlyReport) (report.MonthlyReport, error) {
	if f.err != nil {
		return report.MonthlyReport{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := fmt.Sprintf("%s/%d/%d", rep.CompanyID, rep.Year, rep.Month)
	if prev, ok := f.saved[k]; ok {
		rep.ID = prev.ID
		rep.CreatedAt = prev.CreatedAt
	} else {
		f.seq++
		rep.ID = fmt.Sprintf("report-%d", f.seq)
		rep.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	f.saved[k] = rep
	return rep, nil
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func score(v float64) *float64 {
	return &v
}

// challenge builds a submitted record for company.
func challenge(company string, status dispute.Status, weight float64, submitted, responded string) dispute.Record {
	c := &dispute.Challenge{Submitted: true, Status: status, ChallengeType: "data_error"}
	if submitted != "" {
		c.SubmissionDate = ts(submitted)
	}
	if responded != "" {
		c.ResponseDate = ts(responded)
	}
	return dispute.Record{
		ID:               fmt.Sprintf("%s-%s-%s", company, status, submitted),
		CompanyID:        company,
		ViolationType:    "hours_of_service",
		JurisdictionCode: "TX",
		SeverityWeight:   weight,
		Challenge:        c,
	}
}
