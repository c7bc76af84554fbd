package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotColumns = `
	id::text, period, period_start, period_end,
	total_filed, total_won, total_lost, total_pending, overall_success_rate,
	by_violation_type, by_jurisdiction, by_challenge_type, updated_at`

// PGStore persists snapshots in the system_snapshots table.
type PGStore struct {
	pool        *pgxpool.Pool
	idGenerator func() string
}

// NewPGStore creates a snapshot store on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{
		pool:        pool,
		idGenerator: func() string { return uuid.NewString() },
	}
}

func (s *PGStore) Get(ctx context.Context, key Key) (Snapshot, bool, error) {
	const selectSQL = `SELECT` + snapshotColumns + `
FROM system_snapshots
WHERE period = $1 AND period_start = $2`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, selectSQL, string(key.Period), key.PeriodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("snapshot: get: %w", err)
	}
	return snap, true, nil
}

// Upsert overwrites the row for (period, period_start); last write wins.
func (s *PGStore) Upsert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	byViolation, err := json.Marshal(nonNil(snap.ByViolationType))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: marshal violation breakdown: %w", err)
	}
	byJurisdiction, err := json.Marshal(nonNil(snap.ByJurisdiction))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: marshal jurisdiction breakdown: %w", err)
	}
	byChallenge, err := json.Marshal(nonNil(snap.ByChallengeType))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: marshal challenge breakdown: %w", err)
	}

	const upsertSQL = `
INSERT INTO system_snapshots (
	id, period, period_start, period_end,
	total_filed, total_won, total_lost, total_pending, overall_success_rate,
	by_violation_type, by_jurisdiction, by_challenge_type, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12::jsonb, $13)
ON CONFLICT ON CONSTRAINT system_snapshots_period_key DO UPDATE
SET period_end           = EXCLUDED.period_end,
    total_filed          = EXCLUDED.total_filed,
    total_won            = EXCLUDED.total_won,
    total_lost           = EXCLUDED.total_lost,
    total_pending        = EXCLUDED.total_pending,
    overall_success_rate = EXCLUDED.overall_success_rate,
    by_violation_type    = EXCLUDED.by_violation_type,
    by_jurisdiction      = EXCLUDED.by_jurisdiction,
    by_challenge_type    = EXCLUDED.by_challenge_type,
    updated_at           = EXCLUDED.updated_at
RETURNING` + snapshotColumns

	saved, err := scanSnapshot(s.pool.QueryRow(ctx, upsertSQL,
		s.idGenerator(),
		string(snap.Period),
		snap.PeriodStart,
		snap.PeriodEnd,
		snap.TotalFiled,
		snap.TotalWon,
		snap.TotalLost,
		snap.TotalPending,
		snap.OverallSuccessRate,
		string(byViolation),
		string(byJurisdiction),
		string(byChallenge),
		snap.UpdatedAt,
	))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: upsert: %w", err)
	}
	return saved, nil
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var (
		snap                                 Snapshot
		period                               string
		byViolation, byJurisdiction, byChall []byte
	)
	if err := row.Scan(
		&snap.ID,
		&period,
		&snap.PeriodStart,
		&snap.PeriodEnd,
		&snap.TotalFiled,
		&snap.TotalWon,
		&snap.TotalLost,
		&snap.TotalPending,
		&snap.OverallSuccessRate,
		&byViolation,
		&byJurisdiction,
		&byChall,
		&snap.UpdatedAt,
	); err != nil {
		return Snapshot{}, err
	}
	snap.Period = Period(period)

	if err := json.Unmarshal(byViolation, &snap.ByViolationType); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode violation breakdown: %w", err)
	}
	if err := json.Unmarshal(byJurisdiction, &snap.ByJurisdiction); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode jurisdiction breakdown: %w", err)
	}
	if err := json.Unmarshal(byChall, &snap.ByChallengeType); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode challenge breakdown: %w", err)
	}
	return snap, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
