package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"challengeflow/test/infra"
)

func TestPGStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env, err := infra.Open(ctx)
	if errors.Is(err, infra.ErrUnavailable) {
		t.Skip(err.Error())
	}
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer env.Close()

	store := NewPGStore(env.Pool)
	start, end := PeriodQuarterly.Window(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	key := Key{Period: PeriodQuarterly, PeriodStart: start}

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	written := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	first, err := store.Upsert(ctx, Snapshot{
		Period:             PeriodQuarterly,
		PeriodStart:        start,
		PeriodEnd:          end,
		TotalFiled:         3,
		TotalWon:           1,
		TotalLost:          1,
		TotalPending:       1,
		OverallSuccessRate: 50,
		ByViolationType:    []GroupStat{{Key: "brakes", Filed: 3, Won: 1, SuccessRate: 33}},
		ByJurisdiction:     []JurisdictionStat{{Code: "TX", Filed: 3, Won: 1, SuccessRate: 33, AvgResponseDays: 12}},
		UpdatedAt:          written,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(first.ByChallengeType) != 0 {
		t.Fatalf("expected empty challenge breakdown, got %v", first.ByChallengeType)
	}

	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != first.ID || got.TotalFiled != 3 || !got.UpdatedAt.Equal(written) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if len(got.ByJurisdiction) != 1 || got.ByJurisdiction[0].AvgResponseDays != 12 {
		t.Fatalf("unexpected jurisdiction breakdown %+v", got.ByJurisdiction)
	}

	second, err := store.Upsert(ctx, Snapshot{
		Period:      PeriodQuarterly,
		PeriodStart: start,
		PeriodEnd:   end,
		TotalFiled:  7,
		UpdatedAt:   written.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID || second.TotalFiled != 7 || len(second.ByViolationType) != 0 {
		t.Fatalf("expected overwrite in place, got %+v", second)
	}
}
