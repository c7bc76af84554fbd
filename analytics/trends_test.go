package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"challengeflow/dispute"
)

func TestOutcomeTrends_BucketsOldestFirstAcrossYear(t *testing.T) {
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusAccepted, 1, "2023-12-05T00:00:00Z", "2024-01-02T00:00:00Z"),
		challenge("acme", dispute.StatusDenied, 1, "2023-12-20T00:00:00Z", "2024-01-03T00:00:00Z"),
		challenge("acme", dispute.StatusAccepted, 1, "2024-02-01T00:00:00Z", "2024-02-05T00:00:00Z"),
		challenge("acme", dispute.StatusPending, 1, "2024-02-03T00:00:00Z", ""),
		// outside the window
		challenge("acme", dispute.StatusAccepted, 1, "2023-10-01T00:00:00Z", "2023-10-09T00:00:00Z"),
	}}

	got, err := newTestService(store, now).OutcomeTrends(context.Background(), "acme", 3)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	want := []TrendBucket{
		{Month: 12, Year: 2023, Filed: 2, Won: 1, Lost: 1, SuccessRate: 50},
		{Month: 1, Year: 2024},
		{Month: 2, Year: 2024, Filed: 2, Won: 1, SuccessRate: 100},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestOutcomeTrends_DefaultWindowWithoutData(t *testing.T) {
	now := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)

	got, err := newTestService(&fakeStore{}, now).OutcomeTrends(context.Background(), "acme", 0)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(got))
	}
	if got[0].Month != 4 || got[0].Year != 2023 {
		t.Fatalf("expected first bucket 2023-04, got %d-%d", got[0].Year, got[0].Month)
	}
	if last := got[len(got)-1]; last.Month != 3 || last.Year != 2024 {
		t.Fatalf("expected last bucket 2024-03, got %d-%d", last.Year, last.Month)
	}
	for i, b := range got {
		if b.Filed != 0 || b.SuccessRate != 0 {
			t.Fatalf("bucket %d should be empty, got %+v", i, b)
		}
		if i > 0 {
			prev := got[i-1]
			if prev.Year*12+prev.Month+1 != b.Year*12+b.Month {
				t.Fatalf("buckets %d and %d are not consecutive months", i-1, i)
			}
		}
	}
}

func TestOutcomeTrends_FiltersByCompany(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []dispute.Record{
		challenge("other", dispute.StatusAccepted, 1, "2024-03-02T00:00:00Z", "2024-03-05T00:00:00Z"),
	}}

	got, err := newTestService(store, now).OutcomeTrends(context.Background(), "acme", 1)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(got) != 1 || got[0].Filed != 0 {
		t.Fatalf("expected a single empty bucket, got %+v", got)
	}
}

func TestOutcomeTrends_RejectsWindowAboveMaximum(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{}

	for _, months := range []int{121, 1 << 40} {
		_, err := newTestService(store, now).OutcomeTrends(context.Background(), "acme", months)
		if !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("months=%d: expected ErrInvalidPeriod, got %v", months, err)
		}
	}
	if n := store.calls.Load(); n != 0 {
		t.Fatalf("expected no store queries, got %d", n)
	}

	got, err := newTestService(store, now).OutcomeTrends(context.Background(), "acme", 120)
	if err != nil {
		t.Fatalf("trends at the maximum: %v", err)
	}
	if len(got) != 120 {
		t.Fatalf("expected 120 buckets, got %d", len(got))
	}
}

func TestOutcomeTrends_ConfiguredMaximum(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.MaxTrendMonths = 24
	svc := NewService(&fakeStore{}, newFakeReports(), nil, cfg).WithClock(func() time.Time { return now })

	if _, err := svc.OutcomeTrends(context.Background(), "acme", 25); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod above 24 months, got %v", err)
	}
	if got, err := svc.OutcomeTrends(context.Background(), "acme", 24); err != nil || len(got) != 24 {
		t.Fatalf("expected 24 buckets, got %d (err %v)", len(got), err)
	}
}
