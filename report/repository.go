package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("report: not found")

// Repository persists monthly reports.
type Repository interface {
	Upsert(ctx context.Context, rep MonthlyReport) (MonthlyReport, error)
	Get(ctx context.Context, companyID string, month, year int) (MonthlyReport, error)
}

const returningColumns = `
	id::text, company_id, month, year,
	challenges_filed, challenges_won, challenges_lost, challenges_pending,
	severity_points_removed, estimated_percentile_improvement, estimated_insurance_savings::float8,
	created_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool        *pgxpool.Pool
	idGenerator func() string
}

// NewPGRepository creates a monthly report repository on the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{
		pool:        pool,
		idGenerator: func() string { return uuid.NewString() },
	}
}

// Upsert writes the report keyed on (company_id, month, year). Concurrent
// upserts for the same key are last-write-wins; id and created_at keep their
// first values.
func (r *PGRepository) Upsert(ctx context.Context, rep MonthlyReport) (MonthlyReport, error) {
	const upsertSQL = `
INSERT INTO monthly_reports (
	id, company_id, month, year,
	challenges_filed, challenges_won, challenges_lost, challenges_pending,
	severity_points_removed, estimated_percentile_improvement, estimated_insurance_savings
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT ON CONSTRAINT monthly_reports_period_key DO UPDATE
SET challenges_filed                 = EXCLUDED.challenges_filed,
    challenges_won                   = EXCLUDED.challenges_won,
    challenges_lost                  = EXCLUDED.challenges_lost,
    challenges_pending               = EXCLUDED.challenges_pending,
    severity_points_removed          = EXCLUDED.severity_points_removed,
    estimated_percentile_improvement = EXCLUDED.estimated_percentile_improvement,
    estimated_insurance_savings      = EXCLUDED.estimated_insurance_savings
RETURNING` + returningColumns

	saved, err := scanReport(r.pool.QueryRow(ctx, upsertSQL,
		r.idGenerator(),
		rep.CompanyID,
		rep.Month,
		rep.Year,
		rep.ChallengesFiled,
		rep.ChallengesWon,
		rep.ChallengesLost,
		rep.ChallengesPending,
		rep.SeverityPointsRemoved,
		rep.EstimatedPercentileImprovement,
		rep.EstimatedInsuranceSavings,
	))
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("report: upsert: %w", err)
	}
	return saved, nil
}

func (r *PGRepository) Get(ctx context.Context, companyID string, month, year int) (MonthlyReport, error) {
	const selectSQL = `SELECT` + returningColumns + `
FROM monthly_reports
WHERE company_id = $1 AND month = $2 AND year = $3`

	rep, err := scanReport(r.pool.QueryRow(ctx, selectSQL, companyID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthlyReport{}, ErrNotFound
		}
		return MonthlyReport{}, fmt.Errorf("report: get: %w", err)
	}
	return rep, nil
}

func scanReport(row pgx.Row) (MonthlyReport, error) {
	var rep MonthlyReport
	err := row.Scan(
		&rep.ID,
		&rep.CompanyID,
		&rep.Month,
		&rep.Year,
		&rep.ChallengesFiled,
		&rep.ChallengesWon,
		&rep.ChallengesLost,
		&rep.ChallengesPending,
		&rep.SeverityPointsRemoved,
		&rep.EstimatedPercentileImprovement,
		&rep.EstimatedInsuranceSavings,
		&rep.CreatedAt,
	)
	return rep, err
}
