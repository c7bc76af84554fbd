// Package analytics turns stored dispute records into decision-support
// figures: per-company outcome totals, monthly trends, persisted monthly
// reports, triage accuracy, and cached cross-company snapshots.
//
// Every operation is a stateless request/response computation over the
// record store. Store failures are returned wrapped but otherwise untouched;
// nothing is retried.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"challengeflow/dispute"
	"challengeflow/metrics"
	"challengeflow/report"
	"challengeflow/snapshot"
)

// ErrInvalidPeriod is returned for a month outside 1..12, a non-positive
// year, a snapshot window that ends before it starts, or a trend window
// larger than the configured maximum.
var ErrInvalidPeriod = errors.New("analytics: invalid period")

const (
	opCarrier = "carrier"
	opTrends  = "trends"
	opMonthly = "monthly_report"
	opTriage  = "triage_accuracy"
	opSystem  = "system"
)

// ReportWriter persists monthly reports.
type ReportWriter interface {
	Upsert(ctx context.Context, rep report.MonthlyReport) (report.MonthlyReport, error)
}

// SnapshotCache serves fresh system snapshots and stores recomputed ones.
type SnapshotCache interface {
	Lookup(ctx context.Context, key snapshot.Key) (snapshot.Snapshot, bool, error)
	Put(ctx context.Context, s snapshot.Snapshot) (snapshot.Snapshot, error)
}

// Service computes dispute analytics over a record store and persists the
// derived monthly reports and system snapshots.
type Service struct {
	store     dispute.Store
	reports   ReportWriter
	snapshots SnapshotCache
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// NewService creates an analytics service. Zero-valued tunables in cfg take
// their defaults.
func NewService(store dispute.Store, reports ReportWriter, snapshots SnapshotCache, cfg Config) *Service {
	return &Service{
		store:     store,
		reports:   reports,
		snapshots: snapshots,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		logger:    slog.Default().With(slog.String("component", "analytics")),
	}
}

// WithClock replaces the wall clock used for "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithLogger replaces the service logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger.With(slog.String("component", "analytics"))
	return s
}

// WithMetrics attaches a Prometheus recorder. A nil recorder disables metrics.
func (s *Service) WithMetrics(rec *metrics.Recorder) *Service {
	s.metrics = rec
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// scan streams the records matching filter into fn and reports how many it saw.
func (s *Service) scan(ctx context.Context, op string, filter dispute.Filter, fn func(dispute.Record)) error {
	n := 0
	defer func() { s.metrics.RecordsScanned(op, n) }()
	for rec, err := range s.store.Find(ctx, filter) {
		if err != nil {
			s.logger.Warn("record store query failed", slog.String("operation", op), slog.Any("error", err))
			return err
		}
		fn(rec)
		n++
	}
	return nil
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, start, *err)
}
