package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"challengeflow/dispute"
	"challengeflow/snapshot"
)

func januaryStore() *fakeStore {
	return &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusAccepted, 10, "2024-01-05T00:00:00Z", "2024-01-25T00:00:00Z"),
		challenge("acme", dispute.StatusPending, 4, "2024-01-18T00:00:00Z", ""),
		// filed in December, resolved in February: belongs to neither side of January
		challenge("acme", dispute.StatusDenied, 6, "2023-12-20T00:00:00Z", "2024-02-02T00:00:00Z"),
	}}
}

func TestGenerateMonthlyReport_January(t *testing.T) {
	now := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	svc := newTestService(januaryStore(), now)

	rep, err := svc.GenerateMonthlyReport(context.Background(), "acme", 1, 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.ChallengesFiled != 2 || rep.ChallengesWon != 1 || rep.ChallengesLost != 0 || rep.ChallengesPending != 1 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if rep.SeverityPointsRemoved != 10 {
		t.Fatalf("expected 10 points removed, got %v", rep.SeverityPointsRemoved)
	}
	if rep.EstimatedPercentileImprovement != 5.0 {
		t.Fatalf("expected 5.0 percentile improvement, got %v", rep.EstimatedPercentileImprovement)
	}
	if rep.EstimatedInsuranceSavings != 8000 {
		t.Fatalf("expected 8000 savings, got %v", rep.EstimatedInsuranceSavings)
	}
	if rep.ID == "" {
		t.Fatal("expected persisted report to carry an id")
	}
}

func TestGenerateMonthlyReport_IsIdempotent(t *testing.T) {
	store := januaryStore()
	reports := newFakeReports()
	svc := NewService(store, reports, nil, DefaultConfig())

	first, err := svc.GenerateMonthlyReport(context.Background(), "acme", 1, 2024)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := svc.GenerateMonthlyReport(context.Background(), "acme", 1, 2024)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical reports, got %+v and %+v", first, second)
	}
	if len(reports.saved) != 1 {
		t.Fatalf("expected one stored report, got %d", len(reports.saved))
	}
}

func TestGenerateMonthlyReport_PercentileIsCapped(t *testing.T) {
	store := &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusAccepted, 25, "2024-05-01T00:00:00Z", "2024-05-10T00:00:00Z"),
		challenge("acme", dispute.StatusAccepted, 30, "2024-05-02T00:00:00Z", "2024-05-11T00:00:00Z"),
	}}
	svc := NewService(store, newFakeReports(), nil, DefaultConfig())

	rep, err := svc.GenerateMonthlyReport(context.Background(), "acme", 5, 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.EstimatedPercentileImprovement != 15 {
		t.Fatalf("expected capped improvement 15, got %v", rep.EstimatedPercentileImprovement)
	}
	if rep.EstimatedInsuranceSavings != 44000 {
		t.Fatalf("expected 44000 savings, got %v", rep.EstimatedInsuranceSavings)
	}
}

func TestGenerateMonthlyReport_EmptyMonth(t *testing.T) {
	svc := NewService(&fakeStore{}, newFakeReports(), nil, DefaultConfig())

	rep, err := svc.GenerateMonthlyReport(context.Background(), "acme", 7, 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.ChallengesFiled != 0 || rep.EstimatedPercentileImprovement != 0 || rep.EstimatedInsuranceSavings != 0 {
		t.Fatalf("expected an all-zero report, got %+v", rep)
	}
}

func TestGenerateMonthlyReport_RejectsInvalidPeriod(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, newFakeReports(), nil, DefaultConfig())

	for _, tc := range []struct{ month, year int }{{0, 2024}, {13, 2024}, {6, 0}} {
		if _, err := svc.GenerateMonthlyReport(context.Background(), "acme", tc.month, tc.year); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("month=%d year=%d: expected ErrInvalidPeriod, got %v", tc.month, tc.year, err)
		}
	}
	if n := store.calls.Load(); n != 0 {
		t.Fatalf("expected no store queries for invalid periods, got %d", n)
	}
}

func TestGenerateMonthlyReport_PropagatesErrors(t *testing.T) {
	boom := errors.New("store down")
	svc := NewService(failingStore{err: boom}, newFakeReports(), nil, DefaultConfig())
	if _, err := svc.GenerateMonthlyReport(context.Background(), "acme", 1, 2024); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}

	writeErr := errors.New("write failed")
	reports := newFakeReports()
	reports.err = writeErr
	svc = NewService(januaryStore(), reports, snapshot.NewCache(snapshot.NewMemoryStore(), snapshot.Policy{}), DefaultConfig())
	if _, err := svc.GenerateMonthlyReport(context.Background(), "acme", 1, 2024); !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end, err := DefaultConfig().MonthBounds(2, 2024)
	if err != nil {
		t.Fatalf("month bounds: %v", err)
	}
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if end.Day() != 29 || end.Hour() != 23 || end.Month() != time.February {
		t.Fatalf("unexpected end %v", end)
	}
}
