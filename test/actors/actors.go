package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"challengeflow/report"
	"challengeflow/snapshot"
	"challengeflow/test/infra"
)

// Engine is the part of the analytics service the actors drive.
type Engine interface {
	GenerateMonthlyReport(ctx context.Context, companyID string, month, year int) (report.MonthlyReport, error)
	SystemAnalytics(ctx context.Context, period snapshot.Period, start, end time.Time) (snapshot.Snapshot, error)
}

// Failures counts operations that returned an error. Backend kills make some
// operations fail; the engine does not retry, so they surface here.
type Failures struct {
	n atomic.Int64
}

func (f *Failures) add()        { f.n.Add(1) }
func (f *Failures) Load() int64 { return f.n.Load() }

var statuses = []string{"pending", "under_review", "accepted", "denied", "withdrawn", "escalated"}

// Filer keeps inserting challenged violations for a company within year,
// with random statuses and response dates.
func Filer(ctx context.Context, pool *pgxpool.Pool, companyID string, year int, failures *Failures, stop <-chan struct{}) error {
	types := []string{"brakes", "lighting", "hours_of_service", ""}
	codes := []string{"TX", "OK", "CA", ""}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		sub := time.Date(year, time.Month(1+rand.Intn(12)), 1+rand.Intn(28), rand.Intn(24), 0, 0, 0, time.UTC)
		status := statuses[rand.Intn(len(statuses))]
		weight := float64(1 + rand.Intn(10))
		score := float64(rand.Intn(101))
		v := infra.Violation{
			CompanyID:        companyID,
			ViolationType:    types[rand.Intn(len(types))],
			JurisdictionCode: codes[rand.Intn(len(codes))],
			SeverityWeight:   &weight,
			PriorityScore:    &score,
			Submitted:        true,
			Status:           status,
			SubmissionDate:   &sub,
			ChallengeType:    "data_error",
		}
		if status == "accepted" || status == "denied" {
			resp := sub.Add(time.Duration(1+rand.Intn(60*24)) * time.Hour)
			v.ResponseDate = &resp
		}
		if _, err := infra.InsertViolation(ctx, pool, v); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures.add()
		}
		time.Sleep(time.Duration(5+rand.Intn(15)) * time.Millisecond)
	}
}

// Regenerator repeatedly regenerates random monthly reports of one company,
// racing other regenerators on the same keys.
func Regenerator(ctx context.Context, eng Engine, companyID string, year int, failures *Failures, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		month := 1 + rand.Intn(12)
		if _, err := eng.GenerateMonthlyReport(ctx, companyID, month, year); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures.add()
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Refresher requests system snapshots for random windows of year.
func Refresher(ctx context.Context, eng Engine, year int, failures *Failures, stop <-chan struct{}) error {
	periods := []snapshot.Period{snapshot.PeriodMonthly, snapshot.PeriodQuarterly, snapshot.PeriodYearly}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		p := periods[rand.Intn(len(periods))]
		start, end := p.Window(time.Date(year, time.Month(1+rand.Intn(12)), 15, 0, 0, 0, 0, time.UTC))
		if _, err := eng.SystemAnalytics(ctx, p, start, end); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures.add()
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Converge regenerates every month of year with writers stopped. Racing
// writers must have left one row per key whose id and created_at survive, and
// a further regeneration must leave the row unchanged.
func Converge(ctx context.Context, eng Engine, reports report.Repository, companyID string, year int) error {
	for month := 1; month <= 12; month++ {
		label := fmt.Sprintf("%s %d-%02d", companyID, year, month)
		before, err := reports.Get(ctx, companyID, month, year)
		found := err == nil
		if err != nil && !errors.Is(err, report.ErrNotFound) {
			return fmt.Errorf("converge %s: %w", label, err)
		}

		first, err := eng.GenerateMonthlyReport(ctx, companyID, month, year)
		if err != nil {
			return fmt.Errorf("converge %s: %w", label, err)
		}
		if found && (first.ID != before.ID || !first.CreatedAt.Equal(before.CreatedAt)) {
			return fmt.Errorf("converge %s: identity changed from %s to %s", label, before.ID, first.ID)
		}

		second, err := eng.GenerateMonthlyReport(ctx, companyID, month, year)
		if err != nil {
			return fmt.Errorf("converge %s: %w", label, err)
		}
		stored, err := reports.Get(ctx, companyID, month, year)
		if err != nil {
			return fmt.Errorf("converge %s: %w", label, err)
		}
		if second != first || stored != second {
			return fmt.Errorf("converge %s: regeneration not idempotent: %+v vs %+v", label, first, second)
		}
	}
	return nil
}
