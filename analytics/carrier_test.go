package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"challengeflow/dispute"
	"challengeflow/snapshot"
)

func newTestService(store dispute.Store, now time.Time) *Service {
	cache := snapshot.NewCache(snapshot.NewMemoryStore(), snapshot.Policy{TTL: snapshot.DefaultTTL}).
		WithClock(func() time.Time { return now })
	return NewService(store, newFakeReports(), cache, DefaultConfig()).
		WithClock(func() time.Time { return now })
}

func TestCarrierAnalytics_MixedOutcomes(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusAccepted, 5, "2024-01-10T00:00:00Z", "2024-02-01T00:00:00Z"),
		challenge("acme", dispute.StatusDenied, 3, "2024-01-12T00:00:00Z", "2024-02-03T00:00:00Z"),
		challenge("acme", dispute.StatusPending, 2, "2024-02-20T00:00:00Z", ""),
		challenge("other", dispute.StatusAccepted, 9, "2024-01-10T00:00:00Z", "2024-02-01T00:00:00Z"),
	}}

	got, err := newTestService(store, now).CarrierAnalytics(context.Background(), "acme")
	if err != nil {
		t.Fatalf("carrier analytics: %v", err)
	}
	if got.TotalFiled != 3 || got.Won != 1 || got.Lost != 1 || got.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.SuccessRate != 50 {
		t.Fatalf("expected success rate 50, got %d", got.SuccessRate)
	}
	if got.SeverityPointsRemoved != 5 || got.EstimatedSavings != 4000 {
		t.Fatalf("expected 5 points and 4000 savings, got %v and %v", got.SeverityPointsRemoved, got.EstimatedSavings)
	}
	if !got.CalculatedAt.Equal(now) {
		t.Fatalf("expected CalculatedAt from clock, got %v", got.CalculatedAt)
	}
}

func TestCarrierAnalytics_NoDisputes(t *testing.T) {
	got, err := newTestService(&fakeStore{}, time.Now()).CarrierAnalytics(context.Background(), "acme")
	if err != nil {
		t.Fatalf("carrier analytics: %v", err)
	}
	if got.TotalFiled != 0 || got.SuccessRate != 0 || got.EstimatedSavings != 0 {
		t.Fatalf("expected zero analytics, got %+v", got)
	}
}

func TestCarrierAnalytics_UnrecognizedAndWithdrawnAreVisible(t *testing.T) {
	store := &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusWithdrawn, 1, "2024-01-10T00:00:00Z", ""),
		challenge("acme", dispute.Status("escalated"), 1, "2024-01-11T00:00:00Z", ""),
		challenge("acme", dispute.StatusUnderReview, 1, "2024-01-12T00:00:00Z", ""),
	}}

	got, err := newTestService(store, time.Now()).CarrierAnalytics(context.Background(), "acme")
	if err != nil {
		t.Fatalf("carrier analytics: %v", err)
	}
	if got.TotalFiled != 3 || got.Withdrawn != 1 || got.Unrecognized != 1 || got.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if sum := got.Won + got.Lost + got.Pending + got.Withdrawn + got.Unrecognized; sum != got.TotalFiled {
		t.Fatalf("buckets sum to %d, total filed %d", sum, got.TotalFiled)
	}
	if got.SuccessRate != 0 {
		t.Fatalf("expected 0 success rate without resolutions, got %d", got.SuccessRate)
	}
}

func TestCarrierAnalytics_IgnoresUnsubmitted(t *testing.T) {
	draft := challenge("acme", dispute.StatusAccepted, 7, "2024-01-10T00:00:00Z", "")
	draft.Challenge.Submitted = false
	store := &fakeStore{records: []dispute.Record{
		draft,
		{ID: "bare", CompanyID: "acme", SeverityWeight: 4},
	}}

	got, err := newTestService(store, time.Now()).CarrierAnalytics(context.Background(), "acme")
	if err != nil {
		t.Fatalf("carrier analytics: %v", err)
	}
	if got.TotalFiled != 0 || got.SeverityPointsRemoved != 0 {
		t.Fatalf("expected unsubmitted records ignored, got %+v", got)
	}
}

func TestCarrierAnalytics_ConfiguredSavings(t *testing.T) {
	store := &fakeStore{records: []dispute.Record{
		challenge("acme", dispute.StatusAccepted, 2.5, "2024-01-10T00:00:00Z", "2024-01-20T00:00:00Z"),
	}}
	cfg := DefaultConfig()
	cfg.SavingsPerPoint = 123.456
	svc := NewService(store, newFakeReports(), nil, cfg)

	got, err := svc.CarrierAnalytics(context.Background(), "acme")
	if err != nil {
		t.Fatalf("carrier analytics: %v", err)
	}
	if got.EstimatedSavings != 308.64 {
		t.Fatalf("expected 308.64, got %v", got.EstimatedSavings)
	}
}

func TestCarrierAnalytics_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(failingStore{err: boom}, time.Now())

	if _, err := svc.CarrierAnalytics(context.Background(), "acme"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
