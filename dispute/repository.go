package dispute

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `
		SELECT id::text, company_id, violation_type, jurisdiction_code,
		       COALESCE(severity_weight, 0), priority_score,
		       dispute_submitted, COALESCE(dispute_status, ''),
		       dispute_submission_date, dispute_response_date,
		       COALESCE(dispute_challenge_type, '')
		FROM violations`

// PGStore reads dispute records from the violations table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a record store reading the violations table.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Find(ctx context.Context, filter Filter) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		query, args := buildQuery(filter)
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			yield(Record{}, fmt.Errorf("dispute: find: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				yield(Record{}, fmt.Errorf("dispute: scan: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Record{}, fmt.Errorf("dispute: iterate: %w", err))
		}
	}
}

func buildQuery(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	between := func(column string, r Range) {
		if !r.From.IsZero() {
			conds = append(conds, column+" >= "+arg(r.From))
		}
		if !r.To.IsZero() {
			conds = append(conds, column+" <= "+arg(r.To))
		}
	}

	if f.CompanyID != "" {
		conds = append(conds, "company_id = "+arg(f.CompanyID))
	}
	if f.SubmittedOnly {
		conds = append(conds, "dispute_submitted")
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "dispute_status = ANY("+arg(statuses)+")")
	}
	if f.HasPriorityScore {
		conds = append(conds, "priority_score IS NOT NULL")
	}
	between("dispute_submission_date", f.SubmissionDate)
	between("dispute_response_date", f.ResponseDate)

	query := selectColumns
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, "\n\t\t  AND ")
	}
	return query, args
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec       Record
		submitted bool
		status    string
		subDate   *time.Time
		respDate  *time.Time
		chalType  string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.ViolationType,
		&rec.JurisdictionCode,
		&rec.SeverityWeight,
		&rec.PriorityScore,
		&submitted,
		&status,
		&subDate,
		&respDate,
		&chalType,
	); err != nil {
		return Record{}, err
	}

	if submitted || status != "" || subDate != nil {
		rec.Challenge = &Challenge{
			Submitted:      submitted,
			Status:         Status(status),
			SubmissionDate: subDate,
			ResponseDate:   respDate,
			ChallengeType:  chalType,
		}
	}
	return rec, nil
}
