package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"challengeflow/snapshot"
)

func newCarrierCmd() *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "carrier",
		Short: "Show outcome totals for one company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(a *app) error {
				out, err := a.svc.CarrierAnalytics(cmd.Context(), companyID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newTrendsCmd() *cobra.Command {
	var companyID string
	var months int

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show monthly outcome buckets for one company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(a *app) error {
				out, err := a.svc.OutcomeTrends(cmd.Context(), companyID, months)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().IntVar(&months, "months", 0, "number of months (default from config)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newTriageCmd() *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Score the priority heuristic against resolved challenges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(a *app) error {
				out, err := a.svc.TriageAccuracy(cmd.Context(), companyID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func newSystemCmd() *cobra.Command {
	var periodFlag, at string

	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show (and cache) the cross-company snapshot for a period",
		Long: `Show the system snapshot for the calendar window of --period containing --at.

A snapshot computed within the configured TTL is served from the cache.

Examples:
  challengectl system                                  # current month
  challengectl system --period quarterly --at 2024-02-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := snapshot.ParsePeriod(periodFlag)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(a *app) error {
				loc := a.svc.Config().Location
				ref := time.Now().In(loc)
				if at != "" {
					if ref, err = time.ParseInLocation(time.DateOnly, at, loc); err != nil {
						return fmt.Errorf("invalid --at: %w", err)
					}
				}
				start, end := period.Window(ref)
				out, err := a.svc.SystemAnalytics(cmd.Context(), period, start, end)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&periodFlag, "period", string(snapshot.PeriodMonthly), "monthly, quarterly or yearly")
	cmd.Flags().StringVar(&at, "at", "", "any date inside the window (YYYY-MM-DD, default today)")

	return cmd
}
