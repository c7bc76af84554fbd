package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariants over derived tables. Each query returns the
// offending rows; an empty result means the invariant holds.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_one_report_per_period",
			SQL: `SELECT company_id, month, year, COUNT(*) FROM monthly_reports
                  GROUP BY company_id, month, year HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_report_counts_sane",
			SQL: `SELECT id, challenges_filed, challenges_won, challenges_lost, challenges_pending
                  FROM monthly_reports
                  WHERE challenges_filed < 0 OR challenges_won < 0 OR challenges_lost < 0
                     OR challenges_pending < 0 OR challenges_pending > challenges_filed`,
		},
		{
			Name: "O3_percentile_capped",
			SQL: `SELECT id, estimated_percentile_improvement FROM monthly_reports
                  WHERE estimated_percentile_improvement < 0 OR estimated_percentile_improvement > 15`,
		},
		{
			Name: "O4_savings_follow_points",
			SQL: `SELECT id, severity_points_removed, estimated_insurance_savings FROM monthly_reports
                  WHERE estimated_insurance_savings <> round((severity_points_removed * 800)::numeric, 2)`,
		},
		{
			Name: "O5_no_savings_without_wins",
			SQL: `SELECT id FROM monthly_reports
                  WHERE challenges_won = 0 AND (severity_points_removed <> 0 OR estimated_percentile_improvement <> 0)`,
		},
		{
			Name: "O6_one_snapshot_per_key",
			SQL: `SELECT period, period_start, COUNT(*) FROM system_snapshots
                  GROUP BY period, period_start HAVING COUNT(*) > 1`,
		},
		{
			Name: "O7_snapshot_totals_consistent",
			SQL: `SELECT id FROM system_snapshots
                  WHERE total_won + total_lost + total_pending > total_filed
                     OR overall_success_rate NOT BETWEEN 0 AND 100
                     OR period_end < period_start`,
		},
		{
			Name: "O8_snapshot_group_rates",
			SQL: `SELECT s.id, g.value FROM system_snapshots s,
                         jsonb_array_elements(s.by_violation_type || s.by_jurisdiction || s.by_challenge_type) AS g(value)
                  WHERE (g.value->>'successRate')::int NOT BETWEEN 0 AND 100
                     OR (g.value->>'won')::int > (g.value->>'filed')::int`,
		},
		{
			Name: "O9_snapshot_groups_cover_total",
			SQL: `SELECT s.id FROM system_snapshots s
                  WHERE (SELECT COALESCE(SUM((g->>'filed')::int), 0) FROM jsonb_array_elements(s.by_violation_type) g) <> s.total_filed`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
