package analytics

import (
	"context"
	"fmt"
	"time"

	"challengeflow/dispute"
)

// TrendBucket is one calendar month of a company's challenge activity.
type TrendBucket struct {
	Month       int
	Year        int
	Filed       int
	Won         int
	Lost        int
	SuccessRate int
}

type monthKey struct {
	year  int
	month time.Month
}

// OutcomeTrends returns exactly months buckets, oldest first, ending with the
// current month. Buckets without activity are present with zero counts.
// A non-positive months falls back to the configured default; a window
// above MaxTrendMonths is rejected with ErrInvalidPeriod.
func (s *Service) OutcomeTrends(ctx context.Context, companyID string, months int) (out []TrendBucket, err error) {
	defer s.observe(opTrends, time.Now(), &err)

	if months <= 0 {
		months = s.cfg.TrendMonths
	}
	if months > s.cfg.MaxTrendMonths {
		return nil, fmt.Errorf("%w: months=%d exceeds %d", ErrInvalidPeriod, months, s.cfg.MaxTrendMonths)
	}
	loc := s.cfg.Location
	now := s.now().In(loc)
	oldest := time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, loc)

	buckets := make([]TrendBucket, months)
	index := make(map[monthKey]int, months)
	for i := range buckets {
		d := oldest.AddDate(0, i, 0)
		buckets[i] = TrendBucket{Month: int(d.Month()), Year: d.Year()}
		index[monthKey{d.Year(), d.Month()}] = i
	}

	since := time.Date(now.Year(), now.Month()-time.Month(months), 1, 0, 0, 0, 0, loc)
	filter := dispute.Filter{
		CompanyID:      companyID,
		SubmittedOnly:  true,
		SubmissionDate: dispute.Since(since),
	}
	err = s.scan(ctx, opTrends, filter, func(rec dispute.Record) {
		if rec.Challenge == nil || rec.Challenge.SubmissionDate == nil {
			return
		}
		d := rec.Challenge.SubmissionDate.In(loc)
		i, ok := index[monthKey{d.Year(), d.Month()}]
		if !ok {
			return
		}
		b := &buckets[i]
		b.Filed++
		switch rec.Status().Outcome() {
		case dispute.OutcomeWon:
			b.Won++
		case dispute.OutcomeLost:
			b.Lost++
		}
	})
	if err != nil {
		return nil, err
	}

	for i := range buckets {
		buckets[i].SuccessRate = successRate(buckets[i].Won, buckets[i].Lost)
	}
	return buckets, nil
}
