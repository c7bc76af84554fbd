package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Observe("carrier", time.Now(), nil)
	r.Observe("carrier", time.Now(), errors.New("store down"))
	r.RecordsScanned("carrier", 3)
	r.RecordsScanned("carrier", 0)
	r.SnapshotLookup(true)
	r.SnapshotLookup(false)
	r.SnapshotLookup(false)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("carrier", "ok")); got != 1 {
		t.Fatalf("expected 1 ok operation, got %v", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("carrier", "error")); got != 1 {
		t.Fatalf("expected 1 failed operation, got %v", got)
	}
	if got := testutil.ToFloat64(r.recordsScanned.WithLabelValues("carrier")); got != 3 {
		t.Fatalf("expected 3 records scanned, got %v", got)
	}
	if got := testutil.ToFloat64(r.snapshotLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Fatalf("expected registered metrics, n=%d err=%v", n, err)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Observe("trends", time.Now(), nil)
	r.RecordsScanned("trends", 10)
	r.SnapshotLookup(true)
}
