package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"challengeflow/analytics"
	"challengeflow/report"
)

var errEmptyRange = errors.New("empty month range")

type yearMonth struct {
	Year  int
	Month int
}

func (ym yearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

func parseYearMonth(s string) (yearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return yearMonth{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return yearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

// monthsBetween lists every calendar month from from to to, inclusive.
func monthsBetween(from, to string) ([]yearMonth, error) {
	a, err := parseYearMonth(from)
	if err != nil {
		return nil, err
	}
	b, err := parseYearMonth(to)
	if err != nil {
		return nil, err
	}
	first := a.Year*12 + a.Month - 1
	last := b.Year*12 + b.Month - 1
	if last < first {
		return nil, fmt.Errorf("%w: %s is after %s", errEmptyRange, a, b)
	}
	out := make([]yearMonth, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, yearMonth{Year: i / 12, Month: i%12 + 1})
	}
	return out, nil
}

type reportGenerator interface {
	GenerateMonthlyReport(ctx context.Context, companyID string, month, year int) (report.MonthlyReport, error)
}

// backfill regenerates one report per month with at most limit in flight.
// Results keep the order of months.
func backfill(ctx context.Context, gen reportGenerator, companyID string, months []yearMonth, limit int) ([]report.MonthlyReport, error) {
	out := make([]report.MonthlyReport, len(months))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ym := range months {
		g.Go(func() error {
			rep, err := gen.GenerateMonthlyReport(gctx, companyID, ym.Month, ym.Year)
			if err != nil {
				return fmt.Errorf("%s: %w", ym, err)
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func newReportCmd() *cobra.Command {
	var companyID, month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate (or regenerate) one monthly report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(a *app) error {
				now := time.Now().In(a.svc.Config().Location)
				ym := yearMonth{Year: now.Year(), Month: int(now.Month())}
				if month != "" {
					var err error
					if ym, err = parseYearMonth(month); err != nil {
						return err
					}
				}
				rep, err := a.svc.GenerateMonthlyReport(cmd.Context(), companyID, ym.Month, ym.Year)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newBackfillCmd() *cobra.Command {
	var companyID, from, to string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Regenerate monthly reports over a range of months",
		Long: `Regenerate the monthly report of every month in [--from, --to] for one company.

Regeneration is idempotent: re-running a range rewrites identical rows, apart
from challengesPending, which reflects current status.

Examples:
  challengectl backfill --company acme --from 2024-01 --to 2024-12
  challengectl backfill --company acme --from 2023-07 --to 2024-06 --concurrency 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			months, err := monthsBetween(from, to)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(a *app) error {
				reports, err := backfill(cmd.Context(), a.svc, companyID, months, concurrency)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&from, "from", "", "first month, YYYY-MM")
	cmd.Flags().StringVar(&to, "to", "", "last month, YYYY-MM")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "reports generated in parallel")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

var _ reportGenerator = (*analytics.Service)(nil)
