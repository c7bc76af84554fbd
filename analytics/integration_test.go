package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"challengeflow/dispute"
	"challengeflow/report"
	"challengeflow/snapshot"
	"challengeflow/test/infra"
)

func TestService_PostgresIntegration(t *testing.T) {
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

	weight := func(v float64) *float64 { return &v }
	seed := []infra.Violation{
		{CompanyID: "acme", ViolationType: "brakes", JurisdictionCode: "TX", SeverityWeight: weight(10), PriorityScore: weight(70),
			Submitted: true, Status: "accepted", SubmissionDate: ts("2024-01-05T00:00:00Z"), ResponseDate: ts("2024-01-25T00:00:00Z"), ChallengeType: "data_error"},
		{CompanyID: "acme", ViolationType: "brakes", JurisdictionCode: "TX", SeverityWeight: weight(4),
			Submitted: true, Status: "pending", SubmissionDate: ts("2024-01-18T00:00:00Z")},
		{CompanyID: "acme", ViolationType: "lighting", JurisdictionCode: "OK", PriorityScore: weight(20),
			Submitted: true, Status: "denied", SubmissionDate: ts("2023-12-20T00:00:00Z"), ResponseDate: ts("2024-02-02T00:00:00Z")},
		{CompanyID: "acme", ViolationType: "hours_of_service", SeverityWeight: weight(3)},
	}
	for _, v := range seed {
		if _, err := infra.InsertViolation(ctx, env.Pool, v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := snapshot.NewCache(snapshot.NewPGStore(env.Pool), snapshot.Policy{TTL: time.Hour}).WithClock(clock)
	reports := report.NewPGRepository(env.Pool)
	svc := NewService(dispute.NewPGStore(env.Pool), reports, cache, DefaultConfig()).WithClock(clock)

	carrier, err := svc.CarrierAnalytics(ctx, "acme")
	if err != nil {
		t.Fatalf("carrier: %v", err)
	}
	if carrier.TotalFiled != 3 || carrier.Won != 1 || carrier.Lost != 1 || carrier.Pending != 1 || carrier.EstimatedSavings != 8000 {
		t.Fatalf("unexpected carrier analytics %+v", carrier)
	}

	first, err := svc.GenerateMonthlyReport(ctx, "acme", 1, 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := svc.GenerateMonthlyReport(ctx, "acme", 1, 2024)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if first != second {
		t.Fatalf("expected byte-identical regeneration, got %+v and %+v", first, second)
	}
	if first.ChallengesFiled != 2 || first.EstimatedPercentileImprovement != 5 || first.EstimatedInsuranceSavings != 8000 {
		t.Fatalf("unexpected report %+v", first)
	}

	triage, err := svc.TriageAccuracy(ctx, "acme")
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if triage.TotalResolved != 2 || triage.Accuracy != 100 {
		t.Fatalf("unexpected triage accuracy %+v", triage)
	}

	start, end := snapshot.PeriodQuarterly.Window(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	snap, err := svc.SystemAnalytics(ctx, snapshot.PeriodQuarterly, start, end)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	if snap.TotalFiled != 2 || snap.ID == "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	cached, err := svc.SystemAnalytics(ctx, snapshot.PeriodQuarterly, start, end)
	if err != nil {
		t.Fatalf("cached system: %v", err)
	}
	if cached.ID != snap.ID || !cached.UpdatedAt.Equal(snap.UpdatedAt) {
		t.Fatalf("expected cached snapshot, got %+v", cached)
	}
}
