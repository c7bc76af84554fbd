package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"challengeflow/dispute"
	"challengeflow/report"
)

// MonthBounds returns the first and last instants of a calendar month.
func (c Config) MonthBounds(month, year int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 || year < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month=%d year=%d", ErrInvalidPeriod, month, year)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, c.Location)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
}

// GenerateMonthlyReport computes and upserts the report for one company and
// calendar month. Won/lost and removed points come from challenges resolved in
// the month; filed and pending come from challenges submitted in the month.
// Pending reflects status at generation time, not at month end.
func (s *Service) GenerateMonthlyReport(ctx context.Context, companyID string, month, year int) (out report.MonthlyReport, err error) {
	defer s.observe(opMonthly, time.Now(), &err)

	start, end, err := s.cfg.MonthBounds(month, year)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	period := dispute.Between(start, end)

	rep := report.MonthlyReport{CompanyID: companyID, Month: month, Year: year}
	var points float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		filter := dispute.Filter{CompanyID: companyID, SubmittedOnly: true, SubmissionDate: period}
		return s.scan(gctx, opMonthly, filter, func(rec dispute.Record) {
			rep.ChallengesFiled++
			if rec.Status().Outcome() == dispute.OutcomeOpen {
				rep.ChallengesPending++
			}
		})
	})
	var won, lost int
	g.Go(func() error {
		filter := dispute.Filter{CompanyID: companyID, SubmittedOnly: true, ResponseDate: period}
		return s.scan(gctx, opMonthly, filter, func(rec dispute.Record) {
			switch rec.Status().Outcome() {
			case dispute.OutcomeWon:
				won++
				points += rec.SeverityWeight
			case dispute.OutcomeLost:
				lost++
			}
		})
	})
	if err = g.Wait(); err != nil {
		return report.MonthlyReport{}, err
	}

	rep.ChallengesWon = won
	rep.ChallengesLost = lost
	rep.SeverityPointsRemoved = points
	rep.EstimatedPercentileImprovement = s.cfg.percentileImprovement(points)
	rep.EstimatedInsuranceSavings = s.cfg.savings(points)

	saved, err := s.reports.Upsert(ctx, rep)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	s.logger.Info("monthly report generated",
		slog.String("company_id", companyID),
		slog.Int("month", month),
		slog.Int("year", year),
		slog.Int("filed", saved.ChallengesFiled),
		slog.Int("won", saved.ChallengesWon),
	)
	return saved, nil
}
