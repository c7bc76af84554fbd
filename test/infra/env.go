package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable is returned by Open when no database can be provisioned.
var ErrUnavailable = errors.New("infra: no postgres available (set DATABASE_URL or start docker)")

// Env is a migrated database for one test run.
type Env struct {
	Pool      *pgxpool.Pool
	DSN       string
	container *PGContainer
	teardown  func(context.Context) error
}

// Open provisions a migrated database: DATABASE_URL or CHALLENGEFLOW_TEST_PG_DSN
// when set (isolated in a throwaway schema), otherwise a Postgres 16 container,
// otherwise a fresh database on a local server.
func Open(ctx context.Context) (*Env, error) {
	return OpenDSN(ctx, os.Getenv("DATABASE_URL"))
}

// OpenDSN is Open with an explicit shared DSN taking precedence over the
// environment. An empty dsn falls through to the environment and then to a
// container or local server.
func OpenDSN(ctx context.Context, dsn string) (*Env, error) {
	shared := dsn != "" || os.Getenv("CHALLENGEFLOW_TEST_PG_DSN") != ""
	if !shared && !DockerAvailable(ctx) {
		local, err := InitLocalDatabase(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		dsn = local
	}

	pgC, dsn, err := StartPostgres16(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	pool, teardown, err := ApplyMigrations(ctx, dsn, shared)
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Env{Pool: pool, DSN: dsn, container: pgC, teardown: teardown}, nil
}

// Close drops the isolated schema, closes the pool and stops the container.
func (e *Env) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.teardown != nil {
		_ = e.teardown(ctx)
	}
	_ = e.container.Terminate(ctx)
}

// Violation is a raw row for seeding the violations table.
type Violation struct {
	CompanyID        string
	ViolationType    string
	JurisdictionCode string
	SeverityWeight   *float64
	PriorityScore    *float64
	Submitted        bool
	Status           string
	SubmissionDate   *time.Time
	ResponseDate     *time.Time
	ChallengeType    string
}

// InsertViolation seeds one violation row and returns its id.
func InsertViolation(ctx context.Context, pool *pgxpool.Pool, v Violation) (string, error) {
	const q = `
INSERT INTO violations (company_id, violation_type, jurisdiction_code, severity_weight, priority_score,
                        dispute_submitted, dispute_status, dispute_submission_date, dispute_response_date,
                        dispute_challenge_type)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, NULLIF($10, ''))
RETURNING id::text
`
	var id string
	err := pool.QueryRow(ctx, q,
		v.CompanyID,
		v.ViolationType,
		v.JurisdictionCode,
		v.SeverityWeight,
		v.PriorityScore,
		v.Submitted,
		v.Status,
		v.SubmissionDate,
		v.ResponseDate,
		v.ChallengeType,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed violation: %w", err)
	}
	return id, nil
}
